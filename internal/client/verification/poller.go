package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pawmart/sessionkit/internal/client/api"
	"github.com/pawmart/sessionkit/internal/logging"
)

// QrStatus is the approval state of a QR login session as reported by the
// backend. Transitions are monotonic: pending is the only non-terminal
// status.
type QrStatus string

const (
	QrStatusPending  QrStatus = "pending"
	QrStatusApproved QrStatus = "approved"
	QrStatusExpired  QrStatus = "expired"
	QrStatusRejected QrStatus = "rejected"
)

// Terminal reports whether the status ends the session.
func (s QrStatus) Terminal() bool {
	return s == QrStatusApproved || s == QrStatusExpired || s == QrStatusRejected
}

// statusChecker is the one remote operation the poller performs.
type statusChecker interface {
	QrStatus(ctx context.Context, sessionID string) (*api.QrStatusResponse, error)
}

// TerminalFunc receives the poller's single terminal outcome. pair is non-nil
// only for QrStatusApproved.
type TerminalFunc func(status QrStatus, pair *api.TokenPair)

var errStillPending = errors.New("qr session still pending")

// Poller drives one QR login session to a terminal state: it checks the
// approval status on a fixed interval, tolerates individual poll failures,
// and enforces an absolute wall-clock ceiling after which the session is
// force-expired locally. The terminal callback fires exactly once; Stop is
// idempotent and suppresses the callback entirely.
type Poller struct {
	sessionID string
	interval  time.Duration
	lifetime  time.Duration
	api       statusChecker
	log       logging.Logger

	started atomic.Bool
	stopped atomic.Bool
	deliver sync.Once
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller builds a poller for sessionID. The interval is clamped to at
// least one second so a misconfiguration can never hammer the backend.
func NewPoller(sessionID string, c statusChecker, interval, lifetime time.Duration, log logging.Logger) *Poller {
	if interval < time.Second {
		interval = time.Second
	}
	if lifetime <= 0 {
		lifetime = 3 * time.Minute
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Poller{
		sessionID: sessionID,
		interval:  interval,
		lifetime:  lifetime,
		api:       c,
		log:       log.With("qr_session", sessionID),
		done:      make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. A poller is single-use;
// starting it twice is a no-op.
func (p *Poller) Start(ctx context.Context, onTerminal TerminalFunc) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.lifetime)
	p.cancel = cancel
	go p.run(ctx, onTerminal)
}

// Stop cancels polling without a terminal callback. Safe to call multiple
// times and after the poller has already finished.
func (p *Poller) Stop() {
	p.stopped.Store(true)
	if p.cancel != nil {
		p.cancel()
	}
}

// Done is closed when the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context, onTerminal TerminalFunc) {
	defer close(p.done)
	defer p.cancel()

	var final QrStatus
	var pair *api.TokenPair

	err := retry.Do(ctx, retry.NewConstant(p.interval), func(ctx context.Context) error {
		st, err := p.api.QrStatus(ctx, p.sessionID)
		if err != nil {
			// Transient poll failures never stop the loop; only terminal
			// statuses and the lifetime ceiling do.
			p.log.Debug(ctx, "qr poll failed, retrying", "err", err)
			return retry.RetryableError(err)
		}

		switch QrStatus(st.Status) {
		case QrStatusApproved:
			final = QrStatusApproved
			if st.AccessToken != "" && st.RefreshToken != "" {
				pair = &api.TokenPair{AccessToken: st.AccessToken, RefreshToken: st.RefreshToken}
			}
			return nil
		case QrStatusExpired:
			final = QrStatusExpired
			return nil
		case QrStatusRejected:
			final = QrStatusRejected
			return nil
		default:
			return retry.RetryableError(errStillPending)
		}
	})

	if err != nil {
		if p.stopped.Load() || !errors.Is(err, context.DeadlineExceeded) {
			// Stopped, or the caller's context died: no outcome to report.
			return
		}
		// Lifetime ceiling hit with the backend still saying pending (or
		// never answering): force-expire locally.
		p.log.Info(ctx, "qr session force-expired by lifetime ceiling")
		final = QrStatusExpired
		pair = nil
	}

	p.deliver.Do(func() { onTerminal(final, pair) })
}
