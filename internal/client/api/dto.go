package api

// Request/response DTOs for the storefront auth endpoints. Field names match
// the backend's JSON contract exactly; nothing here is persisted.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

// LoginResponse either carries a token pair (no step-up required) or
// MfaRequired=true, in which case the caller must run a verification flow.
type LoginResponse struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	MfaRequired  bool   `json:"mfaRequired,omitempty"`
	Message      string `json:"message,omitempty"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type SendOtpRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Email    string `json:"email"`
	Otp      string `json:"otp"`
	DeviceID string `json:"deviceId"`
}

// MfaVerifyRequest covers both authenticator codes and backup codes; the
// backend distinguishes them by shape.
type MfaVerifyRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	DeviceID string `json:"deviceId"`
}

type MfaEnableRequest struct {
	Email string `json:"email"`
}

type MfaEnableResponse struct {
	QrBase64    string   `json:"qrBase64"`
	BackupCodes []string `json:"backupCodes,omitempty"`
}

type MfaStatusResponse struct {
	MfaEnabled           bool `json:"mfaEnabled"`
	RemainingBackupCodes int  `json:"remainingBackupCodes,omitempty"`
}

type RegenerateBackupCodesRequest struct {
	Email string `json:"email"`
}

type RegenerateBackupCodesResponse struct {
	BackupCodes []string `json:"backupCodes"`
}

type QrSessionRequest struct {
	DeviceID string `json:"deviceId"`
}

type QrSessionResponse struct {
	SessionID string `json:"sessionId"`
	QrBase64  string `json:"qrBase64,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// QrStatusResponse reports the second-device approval state. Tokens are only
// present when Status is "approved".
type QrStatusResponse struct {
	Status       string `json:"status"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type QrConfirmRequest struct {
	SessionID string `json:"sessionId"`
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message string `json:"message"`
}
