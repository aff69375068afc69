package medapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can use errors.Is.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrForbidden            = errors.New("forbidden access")
	ErrNotFound             = errors.New("resource not found")
	ErrMethodNotAllowed     = errors.New("method not allowed")
	ErrServer               = errors.New("server error")
	ErrConnection           = errors.New("connection error")
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrMethodNotAvailable   = errors.New("method not available in api version")
	ErrMissingDefinition    = errors.New("missing api definition")
	ErrInvalidArgument      = errors.New("invalid argument")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Kind       error
	StatusCode int
	Reason     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Failed. Response status: %d. Reason: %s. Error message: %s", e.StatusCode, e.Reason, e.Body)
}

func (e *APIError) Unwrap() error { return e.Kind }

// newAPIError maps a status code onto its sentinel.
func newAPIError(status int, reason string, body []byte) *APIError {
	reason = strings.TrimSpace(reason)
	if _, after, ok := strings.Cut(reason, " "); ok && strings.HasPrefix(reason, fmt.Sprint(status)) {
		reason = after
	}
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Reason:     reason,
		Body:       strings.TrimSpace(string(body)),
	}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusMethodNotAllowed:
		return ErrMethodNotAllowed
	case status >= 500 && status <= 599:
		return ErrServer
	default:
		return ErrConnection
	}
}

// MissingConfigurationError is returned by a Registry lookup that has nothing configured.
type MissingConfigurationError struct {
	Alias string
}

func (e *MissingConfigurationError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("API credentials for alias '%s' has not been configured.", e.Alias)
	}
	return "API credentials has not been configured."
}

func (e *MissingConfigurationError) Unwrap() error { return ErrMissingConfiguration }

// MethodNotAvailableError reports a method absent from the active version's path table.
type MethodNotAvailableError struct {
	Version APIVersion
	Method  Method
}

func (e *MethodNotAvailableError) Error() string {
	return fmt.Sprintf("API version '%s' does not support '%s' method.", e.Version, e.Method)
}

func (e *MethodNotAvailableError) Unwrap() error { return ErrMethodNotAvailable }

// MissingDefinitionError reports a version with no path table.
type MissingDefinitionError struct {
	Version APIVersion
}

func (e *MissingDefinitionError) Error() string {
	return fmt.Sprintf("API definition for version '%s' is missing.", e.Version)
}

func (e *MissingDefinitionError) Unwrap() error { return ErrMissingDefinition }

// InvalidSearchConceptTypeError reports an unsupported search filter.
type InvalidSearchConceptTypeError struct {
	Type SearchConceptType
}

func (e *InvalidSearchConceptTypeError) Error() string {
	return fmt.Sprintf("Invalid search concept type: '%s'.", e.Type)
}

func (e *InvalidSearchConceptTypeError) Unwrap() error { return ErrInvalidArgument }

// InvalidConceptTypeError reports an unsupported concept filter.
type InvalidConceptTypeError struct {
	Type ConceptType
}

func (e *InvalidConceptTypeError) Error() string {
	return fmt.Sprintf("Invalid concept type: '%s'.", e.Type)
}

func (e *InvalidConceptTypeError) Unwrap() error { return ErrInvalidArgument }

// InvalidAgeUnitError reports an age unit other than year or month.
type InvalidAgeUnitError struct {
	Unit AgeUnit
}

func (e *InvalidAgeUnitError) Error() string {
	return fmt.Sprintf("Invalid age unit: '%s', use 'year' or 'month'.", e.Unit)
}

func (e *InvalidAgeUnitError) Unwrap() error { return ErrInvalidArgument }
