// Package apperrors defines the error taxonomy shared by the stores, the
// reply dispatcher and the Graph client.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports bad or missing input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError from a format string
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown id
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NotFound builds a NotFoundError
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Graph API error codes that mean the access token cannot be used.
const (
	CodeInvalidParameter = 100
	CodeSessionInvalid   = 102
	CodeAccessToken      = 190
)

// ExternalAPIError reports a failed call to the social network API
type ExternalAPIError struct {
	Operation  string
	StatusCode int
	Code       int
	Subcode    int
	Type       string
	Message    string
	Err        error
}

func (e *ExternalAPIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s failed (code %d): %s", e.Operation, e.Code, msg)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, msg)
}

func (e *ExternalAPIError) Unwrap() error {
	return e.Err
}

// IsCredential reports whether the token was rejected as invalid or expired
func (e *ExternalAPIError) IsCredential() bool {
	return e.Code == CodeAccessToken || e.Code == CodeSessionInvalid
}

// Degradable reports whether a write may fall back to the local stub: the
// credential class plus the invalid-parameter code Graph returns for ids the
// token cannot see.
func (e *ExternalAPIError) Degradable() bool {
	return e.IsCredential() || e.Code == CodeInvalidParameter
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AsExternal extracts an ExternalAPIError from err
func AsExternal(err error) (*ExternalAPIError, bool) {
	var ext *ExternalAPIError
	if errors.As(err, &ext) {
		return ext, true
	}
	return nil, false
}

// IsCredential reports whether err is an external credential failure
func IsCredential(err error) bool {
	ext, ok := AsExternal(err)
	return ok && ext.IsCredential()
}
