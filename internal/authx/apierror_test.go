package authx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	e := &APIError{Status: 400, Message: "bad otp"}
	assert.Equal(t, "api error: status 400: bad otp", e.Error())

	e = &APIError{Status: 503}
	assert.Equal(t, "api error: status 503", e.Error())
}

func TestAPIError_IsMapping(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{http.StatusUnauthorized, ErrUnauthorized, true},
		{http.StatusForbidden, ErrUnauthorized, false},
		{http.StatusBadGateway, ErrUnavailable, true},
		{http.StatusBadRequest, ErrUnavailable, false},
	}
	for _, tc := range tests {
		err := error(&APIError{Status: tc.status})
		assert.Equal(t, tc.want, errors.Is(err, tc.target), "status %d vs %v", tc.status, tc.target)
	}
}

func TestAPIError_IsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("verify otp: %w", &APIError{Status: 401, Message: "token expired"})
	require.True(t, IsUnauthorized(err))
	assert.Equal(t, 401, StatusOf(err))
}

func TestStatusOf_NonAPIError(t *testing.T) {
	assert.Equal(t, 0, StatusOf(errors.New("nope")))
}
