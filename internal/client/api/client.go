// Package api is the typed client for the storefront's auth endpoints. Each
// remote operation is one method; transport failures and non-2xx responses
// are mapped to the authx taxonomy at this boundary so callers never see raw
// HTTP details.
package api

import (
	"context"
	"net/url"
)

// Client defines the remote operations the session and verification layers
// consume.
type Client interface {
	Login(ctx context.Context, email, password, deviceID string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error

	SendOtp(ctx context.Context, email string) error
	VerifyOtp(ctx context.Context, email, otp, deviceID string) (*TokenPair, error)
	VerifyMfaCode(ctx context.Context, email, code, deviceID string) (*TokenPair, error)

	EnableMfa(ctx context.Context, email string) (*MfaEnableResponse, error)
	MfaStatus(ctx context.Context, email string) (*MfaStatusResponse, error)
	RegenerateBackupCodes(ctx context.Context, email string) ([]string, error)

	CreateQrSession(ctx context.Context, deviceID string) (*QrSessionResponse, error)
	QrStatus(ctx context.Context, sessionID string) (*QrStatusResponse, error)
	ConfirmQrSession(ctx context.Context, sessionID string) error
}

func (c *HTTPClient) Login(ctx context.Context, email, password, deviceID string) (*LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Email: email, Password: password, DeviceID: deviceID}
	if err := c.post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges the refresh token for a new pair. Per the backend
// contract the refresh token travels as the bearer header, and the call goes
// over the bare transport: routing it through the session transport would
// recurse into the refresh coordinator.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var resp TokenPair
	if err := c.postBare(ctx, "/auth/refresh", refreshToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout is best-effort on the server side; the caller clears local
// credentials regardless of the result.
func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", struct{}{}, nil)
}

func (c *HTTPClient) SendOtp(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/send-otp", SendOtpRequest{Email: email}, nil)
}

func (c *HTTPClient) VerifyOtp(ctx context.Context, email, otp, deviceID string) (*TokenPair, error) {
	var resp TokenPair
	req := VerifyOtpRequest{Email: email, Otp: otp, DeviceID: deviceID}
	if err := c.post(ctx, "/auth/verify-otp", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) VerifyMfaCode(ctx context.Context, email, code, deviceID string) (*TokenPair, error) {
	var resp TokenPair
	req := MfaVerifyRequest{Email: email, Code: code, DeviceID: deviceID}
	if err := c.post(ctx, "/auth/mfa/verify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) EnableMfa(ctx context.Context, email string) (*MfaEnableResponse, error) {
	var resp MfaEnableResponse
	if err := c.post(ctx, "/auth/mfa/enable", MfaEnableRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) MfaStatus(ctx context.Context, email string) (*MfaStatusResponse, error) {
	var resp MfaStatusResponse
	q := url.Values{"email": {email}}
	if err := c.get(ctx, "/auth/mfa/status", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) RegenerateBackupCodes(ctx context.Context, email string) ([]string, error) {
	var resp RegenerateBackupCodesResponse
	req := RegenerateBackupCodesRequest{Email: email}
	if err := c.post(ctx, "/auth/mfa/backup-codes/regenerate", req, &resp); err != nil {
		return nil, err
	}
	return resp.BackupCodes, nil
}

func (c *HTTPClient) CreateQrSession(ctx context.Context, deviceID string) (*QrSessionResponse, error) {
	var resp QrSessionResponse
	if err := c.post(ctx, "/auth/qr/session", QrSessionRequest{DeviceID: deviceID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) QrStatus(ctx context.Context, sessionID string) (*QrStatusResponse, error) {
	var resp QrStatusResponse
	q := url.Values{"sessionId": {sessionID}}
	if err := c.get(ctx, "/auth/qr/status", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmQrSession is issued from the already-authenticated second device to
// approve a pending QR login.
func (c *HTTPClient) ConfirmQrSession(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/auth/qr/confirm", QrConfirmRequest{SessionID: sessionID}, nil)
}

var _ Client = (*HTTPClient)(nil)
