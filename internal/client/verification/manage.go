package verification

import (
	"context"
	"fmt"

	"github.com/pawmart/sessionkit/internal/client/api"
	"github.com/pawmart/sessionkit/internal/client/credentials"
)

// Manager exposes the MFA self-service operations used by the account
// security page: enrolment, status, and backup-code regeneration, plus the
// second-device side of QR login. All calls go through the authenticated
// transport; none of them touch the Flow state machine.
type Manager struct {
	api   api.Client
	creds *credentials.Store
}

func NewManager(c api.Client, creds *credentials.Store) *Manager {
	return &Manager{api: c, creds: creds}
}

// Enrollment is what the UI needs to render MFA setup: the provisioning QR
// and the freshly minted backup codes (shown exactly once).
type Enrollment struct {
	QrBase64    string
	BackupCodes []string
}

// Enable starts authenticator enrolment for the signed-in user.
func (m *Manager) Enable(ctx context.Context) (*Enrollment, error) {
	email, err := m.currentEmail(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := m.api.EnableMfa(ctx, email)
	if err != nil {
		return nil, err
	}
	return &Enrollment{QrBase64: resp.QrBase64, BackupCodes: resp.BackupCodes}, nil
}

// Status reports whether MFA is enabled and how many backup codes remain.
func (m *Manager) Status(ctx context.Context) (enabled bool, remainingBackupCodes int, err error) {
	email, err := m.currentEmail(ctx)
	if err != nil {
		return false, 0, err
	}
	resp, err := m.api.MfaStatus(ctx, email)
	if err != nil {
		return false, 0, err
	}
	return resp.MfaEnabled, resp.RemainingBackupCodes, nil
}

// RegenerateBackupCodes invalidates all remaining codes and returns a fresh
// set.
func (m *Manager) RegenerateBackupCodes(ctx context.Context) ([]string, error) {
	email, err := m.currentEmail(ctx)
	if err != nil {
		return nil, err
	}
	return m.api.RegenerateBackupCodes(ctx, email)
}

// ConfirmQrLogin approves a pending QR login session from this
// already-authenticated device (the scanning side of the flow).
func (m *Manager) ConfirmQrLogin(ctx context.Context, sessionID string) error {
	return m.api.ConfirmQrSession(ctx, sessionID)
}

func (m *Manager) currentEmail(ctx context.Context) (string, error) {
	email, err := m.creds.CurrentEmail(ctx)
	if err != nil {
		return "", err
	}
	if email == "" {
		return "", fmt.Errorf("no signed-in user")
	}
	return email, nil
}
