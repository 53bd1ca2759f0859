// Package authx defines the shared error taxonomy for the session and
// verification subsystem. Callers should use errors.Is to match the
// sentinels and errors.As to extract *APIError for backend failures.
package authx

import "errors"

var (
	// Transport-level errors.
	ErrUnavailable = errors.New("server unavailable")

	// Session errors.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoCredentials = errors.New("no stored credentials")

	// Refresh lifecycle errors. ErrRefreshFailed is terminal for the whole
	// session: credentials have been cleared by the time it is returned.
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")

	// Verification errors.
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrIncorrectCode         = errors.New("incorrect code")
	ErrChallengeExpired      = errors.New("challenge expired")
	ErrInvalidCodeFormat     = errors.New("invalid code format")
	ErrResendNotReady        = errors.New("resend not available yet")
	// ErrAttemptSuperseded marks a response that arrived for an attempt the
	// user already moved past; it must be ignored, never applied.
	ErrAttemptSuperseded = errors.New("verification attempt superseded")

	// QR login errors.
	ErrQrSessionExpired  = errors.New("qr session expired")
	ErrQrSessionRejected = errors.New("qr session rejected")
)
