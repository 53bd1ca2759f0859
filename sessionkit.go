// Package sessionkit is the PawMart storefront's session and verification
// SDK. It owns the local credential store, the authenticated HTTP transport
// with single-flight token refresh, and the step-up verification flow (email
// and SMS one-time codes, authenticator codes, backup codes, and QR login).
//
// Typical wiring:
//
//	kit, err := sessionkit.New(ctx, nil)
//	...
//	outcome, err := kit.Flow.Login(ctx, email, password)
//	if outcome == sessionkit.OutcomeVerificationRequired {
//	    // drive kit.Flow through a verification method
//	}
//	resp, err := kit.Session().Get(url) // authenticated storefront call
package sessionkit

import (
	"context"
	"io"
	"net/http"

	"github.com/pawmart/sessionkit/internal/client/api"
	"github.com/pawmart/sessionkit/internal/client/config"
	"github.com/pawmart/sessionkit/internal/client/credentials"
	"github.com/pawmart/sessionkit/internal/client/session"
	"github.com/pawmart/sessionkit/internal/client/storage"
	"github.com/pawmart/sessionkit/internal/client/verification"
	"github.com/pawmart/sessionkit/internal/logging"
)

// Client bundles the wired-up subsystem. Fields are ready to use after New.
type Client struct {
	// Credentials is the local credential store (tokens, device id).
	Credentials *credentials.Store
	// Flow is the login + step-up verification state machine.
	Flow *verification.Flow
	// MFA exposes the account-security management operations.
	MFA *verification.Manager

	cfg    *config.Config
	apic   *api.HTTPClient
	http   *http.Client
	log    logging.Logger
	closer io.Closer
}

// New builds a Client from configuration loaded per the config package
// (defaults, then environment, then optional JSON file). log may be nil.
func New(ctx context.Context, log logging.Logger) (*Client, error) {
	return NewWithConfig(ctx, config.LoadConfig(), log)
}

// NewWithConfig wires the subsystem for an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNop()
	}

	var store storage.Storage
	var closer io.Closer
	if cfg.StoragePath != "" {
		s, err := storage.OpenSQLite(ctx, cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		store = s
		closer = s
	} else {
		store = storage.NewMemoryStorage()
	}

	creds := credentials.NewStore(store)

	// The refresh exchange must never travel through the intercepted
	// transport, so the coordinator gets its own plain API client; Refresh
	// uses the bare transport by construction.
	refreshClient := api.NewHTTPClient(cfg.BaseURL, nil, cfg.RequestTimeout, log)
	coord := session.NewCoordinator(refreshClient, creds, log)

	hc := &http.Client{Transport: session.NewTransport(nil, creds, coord, log)}
	apiClient := api.NewHTTPClient(cfg.BaseURL, hc, cfg.RequestTimeout, log)

	flow := verification.NewFlow(apiClient, creds, verification.Options{
		OtpTTL:         cfg.OtpTTL,
		QrPollInterval: cfg.QrPollInterval,
		QrLifetime:     cfg.QrLifetime,
		Logger:         log,
	})

	return &Client{
		Credentials: creds,
		Flow:        flow,
		MFA:         verification.NewManager(apiClient, creds),
		cfg:         cfg,
		apic:        apiClient,
		http:        hc,
		log:         log,
		closer:      closer,
	}, nil
}

// Session returns the authenticated HTTP client: every request carries the
// current access token and transparently survives one token expiry.
func (c *Client) Session() *http.Client {
	return c.http
}

// API returns the typed client for the auth endpoints, for callers that need
// individual operations rather than the Flow.
func (c *Client) API() api.Client {
	return c.apic
}

// Logout tells the backend to revoke the session, best-effort, and clears
// local credentials regardless of the outcome: a dead backend must never
// keep a browser signed in.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.apic.Logout(ctx); err != nil {
		c.log.Warn(ctx, "server-side logout failed, clearing locally", "err", err)
	}
	return c.Credentials.Clear(ctx)
}

// Close releases the backing storage, if it holds resources.
func (c *Client) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Re-exported types and constants, so consumers only import this package.
type (
	Config              = config.Config
	Credential          = credentials.Credential
	State               = verification.State
	Method              = verification.Method
	LoginOutcome        = verification.LoginOutcome
	PendingVerification = verification.PendingVerification
	QrStatus            = verification.QrStatus
)

const (
	StateIdle                 = verification.StateIdle
	StateAwaitingMethodChoice = verification.StateAwaitingMethodChoice
	StateEmailOtpFlow         = verification.StateEmailOtpFlow
	StateSmsOtpFlow           = verification.StateSmsOtpFlow
	StateAuthenticatorFlow    = verification.StateAuthenticatorFlow
	StateBackupCodeFlow       = verification.StateBackupCodeFlow
	StateQrFlow               = verification.StateQrFlow
	StateAuthenticated        = verification.StateAuthenticated

	MethodEmailOtp            = verification.MethodEmailOtp
	MethodSmsOtp              = verification.MethodSmsOtp
	MethodGoogleAuthenticator = verification.MethodGoogleAuthenticator
	MethodBackupCode          = verification.MethodBackupCode
	MethodQrCode              = verification.MethodQrCode

	OutcomeAuthenticated        = verification.OutcomeAuthenticated
	OutcomeVerificationRequired = verification.OutcomeVerificationRequired
)

// LoadConfig builds a Config from defaults, environment, and the optional
// JSON file.
func LoadConfig() *Config {
	return config.LoadConfig()
}
