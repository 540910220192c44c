package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	wrappedValidation := fmt.Errorf("create template: %w", Validation("name is required"))
	wrappedNotFound := fmt.Errorf("set status: %w", NotFound("comment", "unknown_id"))

	assert.True(t, IsValidation(wrappedValidation))
	assert.False(t, IsNotFound(wrappedValidation))
	assert.True(t, IsNotFound(wrappedNotFound))
	assert.Equal(t, "set status: comment not found: unknown_id", wrappedNotFound.Error())
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestExternalAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *ExternalAPIError
		credential bool
		degradable bool
	}{
		{"expired token", &ExternalAPIError{Code: 190, Type: "OAuthException"}, true, true},
		{"session invalid", &ExternalAPIError{Code: 102}, true, true},
		{"invalid parameter", &ExternalAPIError{Code: 100, Type: "OAuthException"}, false, true},
		{"server error", &ExternalAPIError{StatusCode: 500}, false, false},
		{"rate limited", &ExternalAPIError{Code: 4, Type: "OAuthException"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.credential, tt.err.IsCredential())
			assert.Equal(t, tt.degradable, tt.err.Degradable())
			assert.Equal(t, tt.credential, IsCredential(fmt.Errorf("wrap: %w", tt.err)))
		})
	}
}

func TestExternalAPIError_Message(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ExternalAPIError{Operation: "post reply", Err: cause}

	assert.Equal(t, "post reply failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	ext, ok := AsExternal(fmt.Errorf("dispatch: %w", err))
	assert.True(t, ok)
	assert.Equal(t, "post reply", ext.Operation)
}
