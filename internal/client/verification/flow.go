package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pawmart/sessionkit/internal/authx"
	"github.com/pawmart/sessionkit/internal/client/api"
	"github.com/pawmart/sessionkit/internal/client/credentials"
	"github.com/pawmart/sessionkit/internal/logging"
)

// LoginOutcome tells the caller what happened after a password login.
type LoginOutcome int

const (
	// OutcomeAuthenticated: tokens issued directly, no step-up required.
	OutcomeAuthenticated LoginOutcome = iota
	// OutcomeVerificationRequired: a PendingVerification was created and a
	// method must be selected.
	OutcomeVerificationRequired
)

// Flow is the step-up verification state machine. One Flow instance serves
// one browser session; it is safe for concurrent use, though submissions are
// normally user-driven and sequential.
//
// Every network submission carries a generation snapshot. Switching methods,
// resending a challenge, or abandoning the flow bumps the generation, so a
// slow response for an already-superseded attempt is detected on arrival and
// dropped instead of transitioning the machine.
type Flow struct {
	api    api.Client
	creds  *credentials.Store
	log    logging.Logger
	otpTTL time.Duration

	qrPollInterval time.Duration
	qrLifetime     time.Duration

	now func() time.Time

	mu        sync.Mutex
	state     State
	pending   *PendingVerification
	challenge *OtpChallenge
	gen       uint64
	poller    *Poller
}

// Options tunes a Flow; zero values fall back to the documented defaults.
type Options struct {
	OtpTTL         time.Duration // default 120s
	QrPollInterval time.Duration // default 5s
	QrLifetime     time.Duration // default 3m
	Logger         logging.Logger
	Now            func() time.Time // test hook
}

func NewFlow(c api.Client, creds *credentials.Store, opts Options) *Flow {
	if opts.OtpTTL <= 0 {
		opts.OtpTTL = 120 * time.Second
	}
	if opts.QrPollInterval <= 0 {
		opts.QrPollInterval = 5 * time.Second
	}
	if opts.QrLifetime <= 0 {
		opts.QrLifetime = 3 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Flow{
		api:            c,
		creds:          creds,
		log:            opts.Logger,
		otpTTL:         opts.OtpTTL,
		qrPollInterval: opts.QrPollInterval,
		qrLifetime:     opts.QrLifetime,
		now:            opts.Now,
		state:          StateIdle,
	}
}

// State returns the machine's current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Pending returns a copy of the pending verification, or nil.
func (f *Flow) Pending() *PendingVerification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return nil
	}
	p := *f.pending
	return &p
}

// Login performs the password login. On a direct token grant the credential
// pair is stored and the flow ends authenticated; on a step-up demand a
// PendingVerification is created and the flow awaits a method choice.
func (f *Flow) Login(ctx context.Context, email, password string) (LoginOutcome, error) {
	deviceID, err := f.creds.DeviceID(ctx)
	if err != nil {
		return 0, err
	}

	resp, err := f.api.Login(ctx, email, password, deviceID)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if resp.MfaRequired {
		f.stopPollerLocked()
		f.pending = &PendingVerification{Email: email, DeviceID: deviceID}
		f.challenge = nil
		f.gen++
		f.state = StateAwaitingMethodChoice
		if err := f.creds.SetPendingEmail(ctx, email); err != nil {
			return 0, err
		}
		f.log.Info(ctx, "verification required", "email", email)
		return OutcomeVerificationRequired, nil
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return 0, fmt.Errorf("login response carried neither tokens nor a step-up demand")
	}
	if err := f.finishLocked(ctx, email, &api.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return 0, err
	}
	return OutcomeAuthenticated, nil
}

// EnterVerification is called when a verification page is opened. If there is
// no pending verification in memory (direct navigation, reload), the machine
// forces Idle: the server-side pending-login handle is not persisted, so the
// only way forward is a fresh password login.
func (f *Flow) EnterVerification(ctx context.Context) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil && f.state != StateAuthenticated {
		f.resetLocked()
		_ = f.creds.ClearPendingEmail(ctx)
	}
	return f.state
}

// SelectMethod moves the flow into the chosen method's sub-state. Selecting a
// different method discards in-progress challenge state (entered code,
// countdown) but keeps the PendingVerification. The QR method is started
// separately via StartQrFlow.
func (f *Flow) SelectMethod(m Method) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == nil {
		return authx.ErrNoPendingVerification
	}

	f.stopPollerLocked()
	f.challenge = nil
	f.gen++
	f.pending.Method = &m
	f.state = methodState(m)
	return nil
}

// RequestOtp asks the backend to send a one-time code for the active email
// or SMS flow and starts the countdown.
func (f *Flow) RequestOtp(ctx context.Context) error {
	f.mu.Lock()
	if f.pending == nil {
		f.mu.Unlock()
		return authx.ErrNoPendingVerification
	}
	if f.state != StateEmailOtpFlow && f.state != StateSmsOtpFlow {
		f.mu.Unlock()
		return fmt.Errorf("otp request in state %s", f.state)
	}
	email := f.pending.Email
	gen := f.gen
	f.mu.Unlock()

	if err := f.api.SendOtp(ctx, email); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return authx.ErrAttemptSuperseded
	}
	f.challenge = &OtpChallenge{SentAt: f.now(), TTL: f.otpTTL}
	return nil
}

// ResendOtp replaces the current challenge with a new one. It is only
// enabled once the countdown reaches zero; the prior challenge is considered
// abandoned, not double-valid.
func (f *Flow) ResendOtp(ctx context.Context) error {
	f.mu.Lock()
	if f.pending == nil {
		f.mu.Unlock()
		return authx.ErrNoPendingVerification
	}
	if f.challenge != nil && !f.challenge.CanResend(f.now()) {
		f.mu.Unlock()
		return authx.ErrResendNotReady
	}
	// a resend supersedes any in-flight submission against the old challenge
	f.gen++
	f.challenge = nil
	f.mu.Unlock()

	return f.RequestOtp(ctx)
}

// CountdownRemaining reports the active challenge's countdown, zero when no
// challenge exists.
func (f *Flow) CountdownRemaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.challenge == nil {
		return 0
	}
	return f.challenge.Remaining(f.now())
}

// SubmitOtp verifies a 6-digit email/SMS code. Format failures are rejected
// before any network call. A wrong code keeps the current sub-state, the
// PendingVerification, and the running countdown.
func (f *Flow) SubmitOtp(ctx context.Context, code string) error {
	if !ValidOtpCode(code) {
		return authx.ErrInvalidCodeFormat
	}

	f.mu.Lock()
	if f.pending == nil {
		f.mu.Unlock()
		return authx.ErrNoPendingVerification
	}
	if f.state != StateEmailOtpFlow && f.state != StateSmsOtpFlow {
		f.mu.Unlock()
		return fmt.Errorf("otp submission in state %s", f.state)
	}
	email, deviceID, gen := f.pending.Email, f.pending.DeviceID, f.gen
	f.mu.Unlock()

	pair, err := f.api.VerifyOtp(ctx, email, code, deviceID)
	return f.applyVerifyResult(ctx, gen, email, pair, err)
}

// SubmitAuthenticatorCode verifies a 6-digit TOTP code. Stateless: no
// challenge, no countdown.
func (f *Flow) SubmitAuthenticatorCode(ctx context.Context, code string) error {
	if !ValidOtpCode(code) {
		return authx.ErrInvalidCodeFormat
	}
	return f.submitMfaCode(ctx, StateAuthenticatorFlow, code)
}

// SubmitBackupCode verifies a single-use backup code. The client only gates
// the XXXX-XXXX format; it has no knowledge of which codes are still valid.
func (f *Flow) SubmitBackupCode(ctx context.Context, code string) error {
	if !ValidBackupCode(code) {
		return authx.ErrInvalidCodeFormat
	}
	return f.submitMfaCode(ctx, StateBackupCodeFlow, code)
}

func (f *Flow) submitMfaCode(ctx context.Context, want State, code string) error {
	f.mu.Lock()
	if f.pending == nil {
		f.mu.Unlock()
		return authx.ErrNoPendingVerification
	}
	if f.state != want {
		f.mu.Unlock()
		return fmt.Errorf("code submission in state %s", f.state)
	}
	email, deviceID, gen := f.pending.Email, f.pending.DeviceID, f.gen
	f.mu.Unlock()

	pair, err := f.api.VerifyMfaCode(ctx, email, code, deviceID)
	return f.applyVerifyResult(ctx, gen, email, pair, err)
}

// applyVerifyResult re-checks the generation snapshot before letting a verify
// response touch the machine. A response for a superseded attempt (method
// switched, challenge resent, flow abandoned) is dropped regardless of
// whether it succeeded.
func (f *Flow) applyVerifyResult(ctx context.Context, gen uint64, email string, pair *api.TokenPair, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gen != gen || f.pending == nil {
		f.log.Debug(ctx, "dropping stale verify response", "email", email)
		return authx.ErrAttemptSuperseded
	}
	if err != nil {
		// local to this attempt: state, pending verification, and any
		// running countdown stay as they are
		return classifyVerifyError(err)
	}
	return f.finishLocked(ctx, email, pair)
}

// StartQrFlow generates a fresh QR session and starts its poller. Any
// previous poller is stopped first: one active poller per session, and
// regeneration never silently reuses the old session. The returned channel
// delivers exactly one outcome: nil on authentication, or the terminal
// failure (expiry/rejection), after which the flow is back at method choice
// and may regenerate.
func (f *Flow) StartQrFlow(ctx context.Context) (*api.QrSessionResponse, <-chan error, error) {
	f.mu.Lock()
	if f.pending == nil {
		f.mu.Unlock()
		return nil, nil, authx.ErrNoPendingVerification
	}
	f.stopPollerLocked()
	f.challenge = nil
	f.gen++
	m := MethodQrCode
	f.pending.Method = &m
	f.state = StateQrFlow
	deviceID := f.pending.DeviceID
	email := f.pending.Email
	gen := f.gen
	f.mu.Unlock()

	sess, err := f.api.CreateQrSession(ctx, deviceID)
	if err != nil {
		return nil, nil, err
	}

	outcome := make(chan error, 1)
	poller := NewPoller(sess.SessionID, f.api, f.qrPollInterval, f.qrLifetime, f.log)

	f.mu.Lock()
	if f.gen != gen {
		// superseded while the session was being created
		f.mu.Unlock()
		return nil, nil, authx.ErrAttemptSuperseded
	}
	f.poller = poller
	f.mu.Unlock()

	poller.Start(ctx, func(status QrStatus, pair *api.TokenPair) {
		outcome <- f.resolveQr(ctx, gen, email, status, pair)
	})
	return sess, outcome, nil
}

// resolveQr applies a poller's terminal outcome, subject to the same stale
// guard as code submissions.
func (f *Flow) resolveQr(ctx context.Context, gen uint64, email string, status QrStatus, pair *api.TokenPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gen != gen || f.pending == nil {
		return authx.ErrAttemptSuperseded
	}

	if status == QrStatusApproved && pair != nil {
		return f.finishLocked(ctx, email, pair)
	}

	// Expiry or rejection: back to method choice with regeneration offered.
	f.poller = nil
	f.state = StateAwaitingMethodChoice
	switch status {
	case QrStatusRejected:
		return authx.ErrQrSessionRejected
	default:
		return authx.ErrQrSessionExpired
	}
}

// Abandon cancels the whole step-up flow: the poller is stopped, the pending
// verification is destroyed, and the machine returns to Idle. A fresh
// password login is required afterwards.
func (f *Flow) Abandon(ctx context.Context) error {
	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()
	return f.creds.ClearPendingEmail(ctx)
}

// finishLocked completes the flow on any successful verification: the token
// pair is written atomically, the display email recorded, and the pending
// state destroyed. Callers hold f.mu.
func (f *Flow) finishLocked(ctx context.Context, email string, pair *api.TokenPair) error {
	if err := f.creds.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}
	if err := f.creds.SetCurrentEmail(ctx, email); err != nil {
		return err
	}
	_ = f.creds.ClearPendingEmail(ctx)

	f.stopPollerLocked()
	f.pending = nil
	f.challenge = nil
	f.gen++
	f.state = StateAuthenticated
	f.log.Info(ctx, "verification complete", "email", email)
	return nil
}

func (f *Flow) resetLocked() {
	f.stopPollerLocked()
	f.pending = nil
	f.challenge = nil
	f.gen++
	f.state = StateIdle
}

// activePoller exposes the running QR poller to tests.
func (f *Flow) activePoller() *Poller {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.poller
}

func (f *Flow) stopPollerLocked() {
	if f.poller != nil {
		f.poller.Stop()
		f.poller = nil
	}
}

// classifyVerifyError maps a backend verify failure onto the user-facing
// taxonomy: "expired" and "incorrect" must be distinguishable. The backend
// signals expiry with 410 or an explicit message; anything else on a 4xx is
// an incorrect code.
func classifyVerifyError(err error) error {
	var ae *authx.APIError
	if !errors.As(err, &ae) {
		return err
	}
	switch {
	case ae.Status == 410:
		return fmt.Errorf("%w: %w", authx.ErrChallengeExpired, err)
	case strings.Contains(strings.ToLower(ae.Message), "expired"):
		return fmt.Errorf("%w: %w", authx.ErrChallengeExpired, err)
	case ae.Status >= 400 && ae.Status < 500:
		return fmt.Errorf("%w: %w", authx.ErrIncorrectCode, err)
	}
	return err
}
