// Package errors provides typed errors for the adopr project.
//
// This package defines domain-specific error types that describe why a
// user-invoked action stopped: missing credentials, rejected credentials,
// a failed lookup, or a failed Azure DevOps call. All error types implement
// the standard error interface and support errors.Is() and errors.As() from
// the standard library and cockroachdb/errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrSurfaced marks an error that has already been shown to the user.
// The command boundary marks errors after notifying so Execute does not
// print them a second time.
var ErrSurfaced = errors.New("error already surfaced")

// ErrSuperseded is returned by a refresh whose results were discarded
// because a newer refresh started while it was in flight.
var ErrSuperseded = errors.New("refresh superseded by a newer refresh")

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// PreconditionError reports that one or more credential fields are missing.
// It is a warning, not a failure: no network call was attempted.
type PreconditionError struct {
	Missing []string // e.g., "organization URL", "project name", "access token"
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	if len(e.Missing) == 0 {
		return "You need to login to Azure DevOps first."
	}
	return fmt.Sprintf("You need to login to Azure DevOps first (missing %s).", strings.Join(e.Missing, ", "))
}

// NewPreconditionError creates a new PreconditionError.
func NewPreconditionError(missing ...string) *PreconditionError {
	return &PreconditionError{Missing: missing}
}

// AuthError represents rejected or unusable credentials.
type AuthError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return "azure devops authentication failed: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NewAuthError creates a new AuthError.
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NewAuthErrorWithCause creates a new AuthError with an underlying cause.
func NewAuthErrorWithCause(message string, cause error) *AuthError {
	return &AuthError{Message: message, Cause: cause}
}

// LookupError reports that a named resource has no exact match.
type LookupError struct {
	Kind string // e.g., "repository"
	Name string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Name == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// NewLookupError creates a new LookupError.
func NewLookupError(kind, name string) *LookupError {
	return &LookupError{Kind: kind, Name: name}
}

// DevOpsError represents a failed Azure DevOps API call.
type DevOpsError struct {
	Operation  string // e.g., "CreatePullRequest", "ListPullRequests"
	StatusCode int    // HTTP status code if applicable
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *DevOpsError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("azure devops %s failed (HTTP %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("azure devops %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *DevOpsError) Unwrap() error {
	return e.Cause
}

// Transient reports whether the status code suggests trying again later.
func (e *DevOpsError) Transient() bool {
	return isTransientHTTPStatus(e.StatusCode)
}

// NewDevOpsError creates a new DevOpsError.
func NewDevOpsError(operation, message string) *DevOpsError {
	return &DevOpsError{Operation: operation, Message: message}
}

// NewDevOpsErrorWithStatus creates a new DevOpsError with HTTP status code.
func NewDevOpsErrorWithStatus(operation string, statusCode int, message string) *DevOpsError {
	return &DevOpsError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewDevOpsErrorWithCause creates a new DevOpsError with an underlying cause.
func NewDevOpsErrorWithCause(operation, message string, cause error) *DevOpsError {
	return &DevOpsError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// StoreError represents credential store failures.
type StoreError struct {
	Operation string // e.g., "Get", "Set", "Delete"
	Key       string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("credential store %s %s failed: %s", e.Operation, e.Key, e.Message)
	}
	return fmt.Sprintf("credential store %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError with an underlying cause.
func NewStoreError(operation, key, message string, cause error) *StoreError {
	return &StoreError{Operation: operation, Key: key, Message: message, Cause: cause}
}

// Severity classifies how an error is shown to the user.
type Severity int

const (
	// SeverityError is shown as an error notification.
	SeverityError Severity = iota
	// SeverityWarning is shown as a warning notification.
	SeverityWarning
	// SeveritySilent is not shown at all.
	SeveritySilent
)

// SeverityOf returns how err should be surfaced. Missing and rejected
// credentials are warnings, superseded refreshes are silent, and everything
// else is an error.
func SeverityOf(err error) Severity {
	switch {
	case err == nil, errors.Is(err, ErrSuperseded):
		return SeveritySilent
	case IsPreconditionError(err), IsAuthError(err):
		return SeverityWarning
	default:
		return SeverityError
	}
}

// MarkSurfaced records that err has been shown to the user.
func MarkSurfaced(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrSurfaced)
}

// IsSurfaced checks if err was already shown to the user.
func IsSurfaced(err error) bool {
	return errors.Is(err, ErrSurfaced)
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsPreconditionError checks if an error or any error in its chain is a PreconditionError.
func IsPreconditionError(err error) bool {
	var preErr *PreconditionError
	return errors.As(err, &preErr)
}

// IsAuthError checks if an error or any error in its chain is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsLookupError checks if an error or any error in its chain is a LookupError.
func IsLookupError(err error) bool {
	var lookupErr *LookupError
	return errors.As(err, &lookupErr)
}

// IsDevOpsError checks if an error or any error in its chain is a DevOpsError.
func IsDevOpsError(err error) bool {
	var devopsErr *DevOpsError
	return errors.As(err, &devopsErr)
}

// IsStoreError checks if an error or any error in its chain is a StoreError.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// isTransientHTTPStatus returns true for HTTP status codes that usually clear up on their own.
func isTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use adoerrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause
)
