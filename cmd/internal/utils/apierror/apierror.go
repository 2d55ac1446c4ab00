package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is what services hand back to routes. It is rendered
// as-is with its own status code.
type ErrorResponse interface {
	error
	Code() int
}

type SimpleError struct {
	Status  int      `json:"-"`
	Message string   `json:"error"`
	Help    string   `json:"help,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *SimpleError) Code() int {
	return s.Status
}

func (s *SimpleError) Error() string {
	return s.Message
}

func NewSimple(code int, message string) *SimpleError {
	return &SimpleError{Status: code, Message: message}
}

func NewWithHelp(code int, message, help string) *SimpleError {
	return &SimpleError{Status: code, Message: message, Help: help}
}

func NewMissingParamError(param string) *SimpleError {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing required parameter: %s", param))
}

func NewInvalidParamTypeError(param, expected string) *SimpleError {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Parameter %s must be of type %s", param, expected))
}

// NewUpstreamStatusError passes a scheduling provider status through.
func NewUpstreamStatusError(status int, message string) *SimpleError {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return NewSimple(status, message)
}

// Catch-all. Unexpected failures answer 400, not 500.
var InternalServerError = NewSimple(http.StatusBadRequest, "Internal server error")

var MalformedBodyError = NewSimple(http.StatusBadRequest, "Malformed request body")

// Authentication
var (
	MissingAuthTokenError   = NewSimple(http.StatusUnauthorized, "No token provided")
	InvalidAuthTokenError   = NewSimple(http.StatusUnauthorized, "Invalid token")
	InvalidCredentialsError = NewSimple(http.StatusUnauthorized, "Invalid credentials")
	EmailNotConfirmedError  = NewSimple(http.StatusUnauthorized, "Please confirm your email before logging in")
)

// Identity provider
var (
	IDPInvalidPasswordError  = NewSimple(http.StatusBadRequest, "Password does not meet the requirements")
	IDPExistingEmailError    = NewSimple(http.StatusBadRequest, "An account with this email already exists")
	IDPInvalidParameterError = NewSimple(http.StatusBadRequest, "The identity provider rejected the request")
	IDPSignupFailedError     = NewSimple(http.StatusBadRequest, "Failed to create user account")
	IDPUserNotFoundError     = NewSimple(http.StatusNotFound, "User not found. Please register first.")
	InvalidVerificationError = NewSimple(http.StatusBadRequest, "Invalid or expired token. Please request a new confirmation email.")
	ResendUnavailableError   = NewWithHelp(
		http.StatusBadRequest,
		"Unable to automatically resend the confirmation email. Please check the email delivery configuration of the identity provider.",
		"Verify that the user pool has a working email sender (SES or the default Cognito sender) and that its sending limits are not exhausted.",
	)
)

// Scheduling provider
var (
	CalendlyNotConfiguredError          = NewSimple(http.StatusServiceUnavailable, "Calendly API not configured")
	CalendlyEventTypeNotConfiguredError = NewSimple(http.StatusServiceUnavailable, "Calendly event type not configured")
	CalendlyAvailabilityError           = NewSimple(http.StatusBadRequest, "Failed to fetch availability")
)

// FromValidationError turns validator errors into a 400 listing every
// offending field by its JSON name.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}

	return &SimpleError{
		Status:  http.StatusBadRequest,
		Message: "Invalid request: " + strings.Join(fieldNames(verrs), ", "),
		Details: details,
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "iso8601":
		return fmt.Sprintf("%s must be an ISO 8601 timestamp", fe.Field())
	case "nospaces":
		return fmt.Sprintf("%s must not contain whitespace", fe.Field())
	case "required_without":
		return fmt.Sprintf("%s is required when %s is missing", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func fieldNames(verrs validator.ValidationErrors) []string {
	seen := make(map[string]bool, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if !seen[fe.Field()] {
			seen[fe.Field()] = true
			names = append(names, fe.Field())
		}
	}
	return names
}
