package config

import (
	"encoding/json"
	"os"
	"time"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// duration strings ("5s", "3m"); zero values leave the existing Config field
// untouched.
type JsonConfig struct {
	BaseURL        string `json:"base_url"`
	RequestTimeout string `json:"request_timeout"`
	OtpTTL         string `json:"otp_ttl"`
	QrPollInterval string `json:"qr_poll_interval"`
	QrLifetime     string `json:"qr_lifetime"`
	StoragePath    string `json:"storage_path"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the SESSIONKIT_CONFIG environment variable; when it
// is unset no JSON is loaded and the function returns. Read and unmarshal
// errors panic (caller should recover if desired), matching the fail-fast
// policy for malformed explicit configuration.
func parseJson(cfg *Config) {
	jsonConfigFile := os.Getenv("SESSIONKIT_CONFIG")
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.StoragePath != "" {
		cfg.StoragePath = jc.StoragePath
	}
	overlayDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	overlayDuration(&cfg.OtpTTL, jc.OtpTTL)
	overlayDuration(&cfg.QrPollInterval, jc.QrPollInterval)
	overlayDuration(&cfg.QrLifetime, jc.QrLifetime)
}

func overlayDuration(dst *time.Duration, s string) {
	if s == "" {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	*dst = d
}
