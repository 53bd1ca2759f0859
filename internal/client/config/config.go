package config

import "time"

// Config holds runtime settings for the session SDK.
//
// Fields:
//   - BaseURL: scheme://host[:port] of the storefront backend.
//   - RequestTimeout: per-request timeout applied by the API client.
//   - OtpTTL: how long an email/SMS one-time code stays resendable-locked.
//   - QrPollInterval: spacing between QR login status checks.
//   - QrLifetime: absolute ceiling on a QR login session, after which the
//     poller force-expires regardless of backend responses.
//   - StoragePath: path of the local credential database; empty means
//     in-memory (credentials do not survive the process).
//
// Units: all intervals are time.Duration (e.g. 5*time.Second).
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	OtpTTL         time.Duration
	QrPollInterval time.Duration
	QrLifetime     time.Duration
	StoragePath    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.OtpTTL = 120 * time.Second
	c.QrPollInterval = 5 * time.Second
	c.QrLifetime = 3 * time.Minute
	c.StoragePath = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including an optional .env file) and a JSON file (if one is
// pointed at by SESSIONKIT_CONFIG). Later sources take precedence over earlier
// ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	return cfg
}
