package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment. A .env
// file in the working directory is loaded first, best-effort; variables
// already present in the environment win over the file.
//
// Supported variables:
//
//	SESSIONKIT_BASE_URL          backend base URL
//	SESSIONKIT_REQUEST_TIMEOUT   duration string, e.g. "10s"
//	SESSIONKIT_OTP_TTL           duration string
//	SESSIONKIT_QR_POLL_INTERVAL  duration string
//	SESSIONKIT_QR_LIFETIME       duration string
//	SESSIONKIT_STORAGE_PATH      credential database path
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("SESSIONKIT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SESSIONKIT_STORAGE_PATH"); v != "" {
		cfg.StoragePath = v
	}
	overlayEnvDuration(&cfg.RequestTimeout, "SESSIONKIT_REQUEST_TIMEOUT")
	overlayEnvDuration(&cfg.OtpTTL, "SESSIONKIT_OTP_TTL")
	overlayEnvDuration(&cfg.QrPollInterval, "SESSIONKIT_QR_POLL_INTERVAL")
	overlayEnvDuration(&cfg.QrLifetime, "SESSIONKIT_QR_LIFETIME")
}

func overlayEnvDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Environment overlays are not explicit files; ignore junk.
		return
	}
	*dst = d
}
