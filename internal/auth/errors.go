package auth

import (
	"fmt"
	"net/http"
)

// Code classifies authentication failures for the wire response.
type Code string

const (
	CodeMissingToken        Code = "MISSING_TOKEN"
	CodeInvalidToken        Code = "INVALID_TOKEN"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeNoTenantContext     Code = "NO_TENANT_CONTEXT"
	CodeInactiveAccount     Code = "INACTIVE_ACCOUNT"
	CodeForbidden           Code = "FORBIDDEN"
)

// Error is a classified authentication failure. ProviderUnavailable is a
// dependency failure, not a credential failure, and maps to 503.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("auth: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the failure to an HTTP status code.
func (e *Error) Status() int {
	switch e.Code {
	case CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

func errMissingToken(msg string) *Error {
	return &Error{Code: CodeMissingToken, Message: msg}
}

func errInvalidToken(err error) *Error {
	return &Error{Code: CodeInvalidToken, Message: "invalid or expired token", Err: err}
}

func errProviderUnavailable(err error) *Error {
	return &Error{Code: CodeProviderUnavailable, Message: "identity provider unreachable", Err: err}
}

func errNoTenantContext(msg string) *Error {
	return &Error{Code: CodeNoTenantContext, Message: msg}
}

func errInactiveAccount() *Error {
	return &Error{Code: CodeInactiveAccount, Message: "account is deactivated"}
}
