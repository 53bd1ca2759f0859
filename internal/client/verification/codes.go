package verification

import (
	"regexp"
	"time"
)

// Client-side format gates. These exist to avoid spending a backend attempt
// on input the client can already see is malformed; the backend remains the
// authority on correctness.
var (
	otpCodePattern    = regexp.MustCompile(`^[0-9]{6}$`)
	backupCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}$`)
)

// ValidOtpCode reports whether code looks like a 6-digit one-time code
// (email, SMS, and authenticator codes share the shape).
func ValidOtpCode(code string) bool {
	return otpCodePattern.MatchString(code)
}

// ValidBackupCode reports whether code matches XXXX-XXXX, uppercase
// alphanumeric. Lowercase input is rejected, not upcased: backup codes are
// displayed uppercase and a mismatch is more likely a typo than a case slip.
func ValidBackupCode(code string) bool {
	return backupCodePattern.MatchString(code)
}

// OtpChallenge tracks one issued email/SMS code. A challenge is single-use
// on the server; a wrong submission does not invalidate it, a resend
// replaces it.
type OtpChallenge struct {
	SentAt time.Time
	TTL    time.Duration
}

// Remaining is the countdown: SentAt + TTL - now, clamped to zero. The
// authoritative expiry is server-side; this value only drives the UI and
// the resend gate.
func (c *OtpChallenge) Remaining(now time.Time) time.Duration {
	d := c.SentAt.Add(c.TTL).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CanResend reports whether the countdown has run out.
func (c *OtpChallenge) CanResend(now time.Time) bool {
	return c.Remaining(now) == 0
}
