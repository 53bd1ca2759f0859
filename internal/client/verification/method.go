// Package verification implements the post-password step-up flow: method
// selection, per-method code submission with client-side format gates, OTP
// challenge countdowns, and the asynchronous QR-approval poller. A successful
// verification writes the credential pair and ends the flow. Nothing here
// survives a process restart: the server-side pending-login handle is not
// persisted client-side, so a reload lands back at the password step.
package verification

// Method is the closed set of step-up verification methods. Transitions
// switch on it exhaustively; adding a method is a compile-time-visible
// change.
type Method int

const (
	MethodEmailOtp Method = iota
	MethodSmsOtp
	MethodGoogleAuthenticator
	MethodBackupCode
	MethodQrCode
)

func (m Method) String() string {
	switch m {
	case MethodEmailOtp:
		return "email_otp"
	case MethodSmsOtp:
		return "sms_otp"
	case MethodGoogleAuthenticator:
		return "google_authenticator"
	case MethodBackupCode:
		return "backup_code"
	case MethodQrCode:
		return "qr_code"
	}
	return "unknown"
}

// State is the flow's position in the step-up ladder.
type State int

const (
	// StateIdle: no pending verification. Entering a verification page in
	// this state means re-login is required.
	StateIdle State = iota
	// StateAwaitingMethodChoice: password accepted, step-up required, no
	// method selected yet.
	StateAwaitingMethodChoice
	StateEmailOtpFlow
	StateSmsOtpFlow
	StateAuthenticatorFlow
	StateBackupCodeFlow
	StateQrFlow
	// StateAuthenticated is terminal: credentials are written and the
	// pending verification is gone.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMethodChoice:
		return "awaiting_method_choice"
	case StateEmailOtpFlow:
		return "email_otp"
	case StateSmsOtpFlow:
		return "sms_otp"
	case StateAuthenticatorFlow:
		return "authenticator"
	case StateBackupCodeFlow:
		return "backup_code"
	case StateQrFlow:
		return "qr"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// methodState maps a selected method onto its sub-state.
func methodState(m Method) State {
	switch m {
	case MethodEmailOtp:
		return StateEmailOtpFlow
	case MethodSmsOtp:
		return StateSmsOtpFlow
	case MethodGoogleAuthenticator:
		return StateAuthenticatorFlow
	case MethodBackupCode:
		return StateBackupCodeFlow
	case MethodQrCode:
		return StateQrFlow
	}
	return StateIdle
}

// PendingVerification is created the moment password login answers
// "verification required" and destroyed when any method succeeds or the user
// abandons the flow.
type PendingVerification struct {
	Email    string
	DeviceID string
	Method   *Method // nil until a method is selected
}
