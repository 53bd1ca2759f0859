package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pawmart/sessionkit/internal/client/storage"
)

// Storage keys. The device id and the display email survive Clear; everything
// session-scoped does not.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyDeviceID     = "device_id"
	keyPendingEmail = "pending_verification_email"
	keyCurrentEmail = "current_user_email"
)

// ErrPartialTokenPair is returned when SetTokens is called with only one half
// of the pair. Tokens are only ever written together.
var ErrPartialTokenPair = errors.New("access and refresh tokens must be set together")

// Store owns all reads and writes of local credentials.
type Store struct {
	storage storage.Storage

	// deviceMu serializes the get-or-create of the device id, so two
	// concurrent first calls cannot mint two ids.
	deviceMu sync.Mutex
}

func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

// Get returns the current credential snapshot.
func (s *Store) Get(ctx context.Context) (Credential, error) {
	var c Credential

	access, err := s.storage.Get(ctx, keyAccessToken)
	if err != nil {
		return c, fmt.Errorf("read access token: %w", err)
	}
	refresh, err := s.storage.Get(ctx, keyRefreshToken)
	if err != nil {
		return c, fmt.Errorf("read refresh token: %w", err)
	}
	device, err := s.storage.Get(ctx, keyDeviceID)
	if err != nil {
		return c, fmt.Errorf("read device id: %w", err)
	}

	c.AccessToken = string(access)
	c.RefreshToken = string(refresh)
	c.DeviceID = string(device)
	return c, nil
}

// SetTokens writes the access/refresh pair atomically. Writing only one half
// is rejected: a torn pair is worse than no pair, because a stale refresh
// token next to a fresh access token invalidates the session on the next
// refresh.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrPartialTokenPair
	}
	err := s.storage.SetMany(ctx, map[string][]byte{
		keyAccessToken:  []byte(access),
		keyRefreshToken: []byte(refresh),
	})
	if err != nil {
		return fmt.Errorf("write token pair: %w", err)
	}
	return nil
}

// DeviceID returns the stable per-device identifier, creating it on first
// use. The operation is idempotent: every call returns the same id for the
// lifetime of the local storage. This is the single canonical device
// identity; all flows, including QR login, use it.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	v, err := s.storage.Get(ctx, keyDeviceID)
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	if len(v) > 0 {
		return string(v), nil
	}

	id := uuid.NewString()
	if err := s.storage.Set(ctx, keyDeviceID, []byte(id)); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	return id, nil
}

// SetPendingEmail records the email of an in-progress step-up verification.
// Session-scoped: removed by Clear and by ClearPendingEmail.
func (s *Store) SetPendingEmail(ctx context.Context, email string) error {
	return s.storage.Set(ctx, keyPendingEmail, []byte(email))
}

func (s *Store) PendingEmail(ctx context.Context) (string, error) {
	v, err := s.storage.Get(ctx, keyPendingEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *Store) ClearPendingEmail(ctx context.Context) error {
	return s.storage.Delete(ctx, keyPendingEmail)
}

// SetCurrentEmail records the signed-in user's email for display. It is never
// used as an authorization credential and survives Clear.
func (s *Store) SetCurrentEmail(ctx context.Context, email string) error {
	return s.storage.Set(ctx, keyCurrentEmail, []byte(email))
}

func (s *Store) CurrentEmail(ctx context.Context) (string, error) {
	v, err := s.storage.Get(ctx, keyCurrentEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Clear removes the token pair and any pending-verification state in one
// atomic batch. The device id and the display email stay: device identity is
// per-browser, not per-session.
func (s *Store) Clear(ctx context.Context) error {
	err := s.storage.DeleteMany(ctx, keyAccessToken, keyRefreshToken, keyPendingEmail)
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
