// Package session implements the authenticated transport for the storefront
// SDK: an http.RoundTripper that attaches the access token and recovers from
// expiry, and the refresh coordinator that guarantees a single refresh
// exchange no matter how many requests fail at once.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/pawmart/sessionkit/internal/authx"
	"github.com/pawmart/sessionkit/internal/client/api"
	"github.com/pawmart/sessionkit/internal/client/credentials"
	"github.com/pawmart/sessionkit/internal/logging"
)

// refresher is the one remote operation the coordinator needs. It must reach
// the backend out-of-band, never through Transport.
type refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
}

// result settles a waiter: the fresh access token, or the error shared by
// everyone who waited on the same exchange.
type result struct {
	accessToken string
	err         error
}

// Coordinator serializes refresh-token exchanges. At most one exchange is in
// flight at any instant; concurrent callers wait for it and all observe the
// same outcome. On failure, credentials are cleared exactly once (per
// exchange, not per caller).
type Coordinator struct {
	api   refresher
	creds *credentials.Store
	log   logging.Logger

	mu       sync.Mutex
	inFlight bool
	waiters  []chan result
}

func NewCoordinator(r refresher, creds *credentials.Store, log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Coordinator{api: r, creds: creds, log: log}
}

// EnsureFreshToken returns an access token that was valid at the moment the
// backing exchange completed. If an exchange is already in flight the caller
// joins it; otherwise the caller becomes the leader and performs it.
//
// A joining caller whose context dies stops waiting, but the exchange itself
// keeps running for everyone else; its outcome is shared state, so no single
// caller's cancellation may decide it. For the same reason the leader runs
// the exchange on a context detached from its own cancellation.
func (c *Coordinator) EnsureFreshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.inFlight {
		ch := make(chan result, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case r := <-ch:
			return r.accessToken, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.inFlight = true
	c.mu.Unlock()

	access, err := c.exchange(context.WithoutCancel(ctx))
	c.settle(ctx, access, err)
	return access, err
}

// exchange performs one refresh-token exchange: read the refresh token, call
// the backend, write the new pair atomically. Any failure clears the stored
// credentials and is terminal for the session.
func (c *Coordinator) exchange(ctx context.Context) (string, error) {
	cred, err := c.creds.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	if cred.RefreshToken == "" {
		_ = c.creds.Clear(ctx)
		return "", fmt.Errorf("%w: %w", authx.ErrRefreshFailed, authx.ErrNoRefreshToken)
	}

	pair, err := c.api.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		_ = c.creds.Clear(ctx)
		return "", fmt.Errorf("%w: %w", authx.ErrRefreshFailed, err)
	}

	if err := c.creds.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		_ = c.creds.Clear(ctx)
		return "", fmt.Errorf("%w: %w", authx.ErrRefreshFailed, err)
	}
	return pair.AccessToken, nil
}

// settle delivers the exchange outcome to every waiter exactly once and
// reopens the coordinator for the next exchange. Waiter channels are
// buffered, so delivery never blocks on a caller that already gave up.
func (c *Coordinator) settle(ctx context.Context, access string, err error) {
	c.mu.Lock()
	ws := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.mu.Unlock()

	for _, ch := range ws {
		ch <- result{accessToken: access, err: err}
	}

	if err != nil {
		c.log.Warn(ctx, "token refresh failed", "waiters", len(ws), "err", err)
	} else {
		c.log.Info(ctx, "token refresh ok", "waiters", len(ws))
	}
}
