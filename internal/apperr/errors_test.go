package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StatusPerKind(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
		is     error
	}{
		{Validation("bad"), http.StatusBadRequest, ErrValidation},
		{Authentication("who"), http.StatusUnauthorized, ErrAuthentication},
		{Authorization("nope"), http.StatusForbidden, ErrAuthorization},
		{NotFound("gone"), http.StatusNotFound, ErrNotFound},
		{Internal(errors.New("boom")), http.StatusInternalServerError, ErrInternal},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.status, tc.err.Status(), tc.err.Message)
		assert.ErrorIs(t, tc.err, tc.is)
	}
}

func TestError_WrappedStillMatches(t *testing.T) {
	cause := errors.New("driver down")
	err := fmt.Errorf("listing trips: %w", Upstream("weather", cause))

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestAs(t *testing.T) {
	nf := NotFound("no trip found with that id")
	assert.Same(t, nf, As(fmt.Errorf("wrap: %w", nf)))

	plain := As(errors.New("raw"))
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, "something went wrong", plain.Message)
}
