// Package config loads runtime configuration for the session SDK.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, including an optional .env file loaded via
//     godotenv (see parseEnv).
//  3. Optional JSON file pointed at by SESSIONKIT_CONFIG (see parseJson),
//     which overrides earlier values.
//
// # JSON schema
//
// Intervals are duration strings:
//
//	{
//	  "base_url": "https://shop.example.com",
//	  "request_timeout": "10s",
//	  "otp_ttl": "120s",
//	  "qr_poll_interval": "5s",
//	  "qr_lifetime": "3m",
//	  "storage_path": "/var/lib/pawmart/session.db"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the SDK
//   - func LoadConfig() *Config       — defaults, then env, then JSON
//   - func (*Config) LoadDefaults()   — sets sensible defaults
package config
