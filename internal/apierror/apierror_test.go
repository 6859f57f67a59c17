package apierror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAccountLocked, http.StatusForbidden},
		{ErrLimitExceeded, http.StatusConflict},
		{ErrLimitReached, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInternalServer, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := NewAPIError(tt.code, "message", nil)
			assert.Equal(t, tt.want, MapErrorToHTTPStatus(err))
		})
	}
}

func TestMapErrorToHTTPStatusPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError,
		MapErrorToHTTPStatus(errors.New("boom")))
}

func TestAPIErrorError(t *testing.T) {
	err := NewAPIError(ErrNotFound, "no record found", "details")
	assert.Equal(t, "NOT_FOUND: no record found", err.Error())
}
