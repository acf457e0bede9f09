package httperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(PermissionDenied)
	assert.Equal(t, PermissionDenied, err.ErrorCode)
	assert.Equal(t, http.StatusForbidden, err.StatusCode)
	assert.NotEmpty(t, err.Description)
}

func TestNewWithStatus(t *testing.T) {
	err := NewWithStatus(SessionExpired, "exp=10", http.StatusFound)
	assert.Equal(t, SessionExpired, err.ErrorCode)
	assert.Equal(t, "exp=10", err.Metadata)
	assert.Equal(t, http.StatusFound, err.StatusCode)
}

func TestNew_UnknownKey(t *testing.T) {
	err := New("nope")
	assert.Equal(t, UndefinedErrorCode, err.ErrorCode)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
}

func TestHttpError_As(t *testing.T) {
	wrapped := fmt.Errorf("navigate: %w", New(RouteNotConfigured))

	var e HttpError
	assert.True(t, errors.As(wrapped, &e))
	assert.Equal(t, RouteNotConfigured, e.ErrorCode)
}
