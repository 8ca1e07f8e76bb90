package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON     = errors.New("invalid JSON format")
	ErrInvalidXML      = errors.New("invalid XML format")
	ErrMultipleJSON    = errors.New("multiple JSON values found")
	ErrNoElement       = errors.New("XML input contains no element")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe data to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrUnknownKind     = errors.New("unknown schema kind")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput      ErrorType = "input"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeConversion ErrorType = "conversion"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeOutput     ErrorType = "output"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: message,
		Err:     err,
	}
}

// NewInputError creates a new error related to reading input
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, message, err)
}

// NewParsingError creates a new error related to JSON or XML parsing
func NewParsingError(message string, err error) *AppError {
	return newError(ErrorTypeParsing, message, err)
}

// NewConversionError creates a new error raised while converting between encodings
func NewConversionError(message string, err error) *AppError {
	return newError(ErrorTypeConversion, message, err)
}

// NewValidationError creates a new error raised by the schema validator
func NewValidationError(message string, err error) *AppError {
	return newError(ErrorTypeValidation, message, err)
}

// NewConfigError creates a new error related to the configuration file
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// StatusCode maps err onto the HTTP status the API answers with.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput, ErrorTypeParsing, ErrorTypeConversion, ErrorTypeValidation:
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	if errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrInvalidJSON) || errors.Is(err, ErrMultipleJSON) ||
		errors.Is(err, ErrInvalidXML) || errors.Is(err, ErrNoElement) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, appErr.Err)
		}
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", msg)
		case ErrorTypeParsing:
			return fmt.Sprintf("Parsing error: %s", msg)
		case ErrorTypeConversion:
			return fmt.Sprintf("Conversion error: %s", msg)
		case ErrorTypeValidation:
			return fmt.Sprintf("Validation error: %s", msg)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", msg)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", msg)
		default:
			return fmt.Sprintf("Error: %s", msg)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide an OpenMath document."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrInvalidXML) {
		return "Error: The input contains invalid XML. Please check your XML syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: The input contains multiple JSON values. Please provide a single OpenMath value."
	}
	if errors.Is(err, ErrNoElement) {
		return "Error: The XML input contains no element."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with an OpenMath document."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}
	if errors.Is(err, ErrUnknownKind) {
		return "Error: Unknown schema kind. Run 'omconv kinds' to list the accepted kinds."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
