// Package credentials implements the client-side credential store: the
// access/refresh token pair, the per-device identifier, and the small amount
// of session-scoped state around a pending verification. It does no network
// I/O; everything is backed by a storage.Storage.
package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the snapshot a reader gets from the store. Any field may be
// empty independently: a fresh install has a DeviceID but no tokens yet.
type Credential struct {
	AccessToken  string
	RefreshToken string
	DeviceID     string
}

// HasTokens reports whether a token pair is present.
func (c Credential) HasTokens() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// AccessTokenExpiresAt decodes the access token without verifying its
// signature and returns the exp claim. This is a rendering hint only, never
// an authorization decision; the zero time is returned for absent, opaque,
// or exp-less tokens.
func (c Credential) AccessTokenExpiresAt() time.Time {
	if c.AccessToken == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
