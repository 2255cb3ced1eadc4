package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeMissingIdentifier means no opaque user identifier was supplied
	ErrTypeMissingIdentifier ErrorType = "missing_identifier"
	// ErrTypeUnknownIdentifier means the supplied identifier resolved to no user.
	// Malformed and unknown ids are deliberately the same kind: ids are opaque
	// and distinguishing them would aid enumeration.
	ErrTypeUnknownIdentifier ErrorType = "unknown_identifier"
	// ErrTypeValidation represents request validation errors (bad page, empty body)
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeInvalidCredential means a submitted cookie blob failed the upstream probe
	ErrTypeInvalidCredential ErrorType = "invalid_credential"
	// ErrTypeNoData means the upstream returned an empty result for the request
	ErrTypeNoData ErrorType = "no_data"
	// ErrTypeSetup represents failures while preparing an upstream call
	ErrTypeSetup ErrorType = "setup"
	// ErrTypeUpstream represents failures during an upstream call or result parsing
	ErrTypeUpstream ErrorType = "upstream"
	// ErrTypeConnection represents connection-related errors
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MissingIdentifierError creates an error for an absent user identifier
func MissingIdentifierError() *AppError {
	return &AppError{
		Type:    ErrTypeMissingIdentifier,
		Message: "missing login header",
	}
}

// UnknownIdentifierError creates an error for an unresolvable user identifier
func UnknownIdentifierError() *AppError {
	return &AppError{
		Type:    ErrTypeUnknownIdentifier,
		Message: "invalid login header",
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// InvalidCredentialError creates an error for a rejected cookie blob
func InvalidCredentialError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeInvalidCredential,
		Message: msg,
	}
}

// NoDataError creates an error for an empty upstream result
func NoDataError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNoData,
		Message: fmt.Sprintf("could not fetch %s", resource),
	}
}

// SetupError creates an error for failures preparing an upstream call
func SetupError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeSetup,
		Message: msg,
		Cause:   cause,
	}
}

// UpstreamError creates an error for failures during an upstream call
func UpstreamError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeUpstream,
		Message: msg,
		Cause:   cause,
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}
