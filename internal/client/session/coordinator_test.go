package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/pawmart/sessionkit/internal/authx"
	"github.com/pawmart/sessionkit/internal/client/api"
	"github.com/pawmart/sessionkit/internal/client/credentials"
	"github.com/pawmart/sessionkit/internal/client/storage"
)

// ---- fake refresher ----

type fakeRefresher struct {
	Calls   atomic.Int32
	Ret     *api.TokenPair
	Err     error
	Started chan struct{} // closed-ish: one send per call
	Release chan struct{} // Refresh blocks until it can receive

	LastRefreshToken string
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error) {
	f.Calls.Add(1)
	f.LastRefreshToken = refreshToken
	if f.Started != nil {
		f.Started <- struct{}{}
	}
	if f.Release != nil {
		<-f.Release
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Ret, nil
}

func newCreds(t *testing.T) *credentials.Store {
	t.Helper()
	return credentials.NewStore(storage.NewMemoryStorage())
}

// waitForWaiters blocks until the coordinator has n queued waiters.
func waitForWaiters(t *testing.T, c *Coordinator, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		got := len(c.waiters)
		c.mu.Unlock()
		if got == n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d waiters, have %d", n, got)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEnsureFreshToken_SingleFlight(t *testing.T) {
	ctx := context.Background()
	creds := newCreds(t)
	require.NoError(t, creds.SetTokens(ctx, "old-access", "old-refresh"))

	f := &fakeRefresher{
		Ret:     &api.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
		Started: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
	c := NewCoordinator(f, creds, nil)

	const waiters = 8
	tokens := make([]string, waiters+1)

	var g errgroup.Group
	g.Go(func() error {
		tok, err := c.EnsureFreshToken(ctx)
		tokens[0] = tok
		return err
	})

	<-f.Started // the leader's exchange is in flight
	for i := 1; i <= waiters; i++ {
		i := i
		g.Go(func() error {
			tok, err := c.EnsureFreshToken(ctx)
			tokens[i] = tok
			return err
		})
	}
	waitForWaiters(t, c, waiters)
	close(f.Release)

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), f.Calls.Load(), "exactly one refresh exchange")
	for _, tok := range tokens {
		assert.Equal(t, "new-access", tok)
	}

	cred, err := creds.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "new-refresh", cred.RefreshToken)
	assert.Equal(t, "old-refresh", f.LastRefreshToken)
}

func TestEnsureFreshToken_FailureRejectsEveryWaiterOnce(t *testing.T) {
	ctx := context.Background()
	creds := newCreds(t)
	require.NoError(t, creds.SetTokens(ctx, "a", "r"))

	f := &fakeRefresher{
		Err:     errors.New("refresh token revoked"),
		Started: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
	c := NewCoordinator(f, creds, nil)

	const waiters = 5
	errsCh := make(chan error, waiters+1)

	go func() {
		_, err := c.EnsureFreshToken(ctx)
		errsCh <- err
	}()
	<-f.Started
	for i := 0; i < waiters; i++ {
		go func() {
			_, err := c.EnsureFreshToken(ctx)
			errsCh <- err
		}()
	}
	waitForWaiters(t, c, waiters)
	close(f.Release)

	for i := 0; i < waiters+1; i++ {
		err := <-errsCh
		require.ErrorIs(t, err, authx.ErrRefreshFailed)
	}
	assert.Equal(t, int32(1), f.Calls.Load())

	// terminal for the session: tokens gone
	cred, err := creds.Get(ctx)
	require.NoError(t, err)
	assert.False(t, cred.HasTokens())

	// the coordinator must be reusable for the next session
	c.mu.Lock()
	assert.False(t, c.inFlight)
	assert.Empty(t, c.waiters)
	c.mu.Unlock()
}

func TestEnsureFreshToken_NoRefreshTokenFailsFast(t *testing.T) {
	ctx := context.Background()
	creds := newCreds(t)

	f := &fakeRefresher{}
	c := NewCoordinator(f, creds, nil)

	_, err := c.EnsureFreshToken(ctx)
	require.ErrorIs(t, err, authx.ErrRefreshFailed)
	require.ErrorIs(t, err, authx.ErrNoRefreshToken)
	assert.Equal(t, int32(0), f.Calls.Load(), "no exchange without a refresh token")
}

func TestEnsureFreshToken_WaiterContextCancellation(t *testing.T) {
	ctx := context.Background()
	creds := newCreds(t)
	require.NoError(t, creds.SetTokens(ctx, "a", "r"))

	f := &fakeRefresher{
		Ret:     &api.TokenPair{AccessToken: "new-a", RefreshToken: "new-r"},
		Started: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
	c := NewCoordinator(f, creds, nil)

	go func() { _, _ = c.EnsureFreshToken(ctx) }()
	<-f.Started

	waiterCtx, cancel := context.WithCancel(ctx)
	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.EnsureFreshToken(waiterCtx)
		waiterErr <- err
	}()
	waitForWaiters(t, c, 1)
	cancel()

	require.ErrorIs(t, <-waiterErr, context.Canceled)

	// the exchange still completes and persists the new pair
	close(f.Release)
	deadline := time.Now().Add(2 * time.Second)
	for {
		cred, err := creds.Get(ctx)
		require.NoError(t, err)
		if cred.AccessToken == "new-a" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("exchange never completed after waiter cancellation")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEnsureFreshToken_SequentialExchanges(t *testing.T) {
	ctx := context.Background()
	creds := newCreds(t)
	require.NoError(t, creds.SetTokens(ctx, "a1", "r1"))

	f := &fakeRefresher{Ret: &api.TokenPair{AccessToken: "a2", RefreshToken: "r2"}}
	c := NewCoordinator(f, creds, nil)

	tok, err := c.EnsureFreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", tok)

	f.Ret = &api.TokenPair{AccessToken: "a3", RefreshToken: "r3"}
	tok, err = c.EnsureFreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a3", tok)
	assert.Equal(t, "r2", f.LastRefreshToken, "second exchange must use the rotated refresh token")
	assert.Equal(t, int32(2), f.Calls.Load())
}
