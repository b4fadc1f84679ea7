package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary conditions such as context cancellation
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid configuration or wiring
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that end the owning node
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Node lifecycle errors
	ErrAlreadyStarted = errors.New("node already started")
	ErrNotStarted     = errors.New("node not started")
	ErrNoLearner      = errors.New("no learner received before input closed")
	ErrNodePanic      = errors.New("node panicked")

	// Port errors
	ErrPortClosed        = errors.New("port closed")
	ErrAlreadyConnected  = errors.New("input already connected")
	ErrPortTypeMismatch  = errors.New("port element types are not assignable")
	ErrPortNotFound      = errors.New("port not found")
	ErrNodeNotFound      = errors.New("node not found")
	ErrRequiredUnwired   = errors.New("required input is not connected")
	ErrDuplicateNodeName = errors.New("duplicate node name")

	// Payload errors
	ErrInvalidData   = errors.New("invalid data format")
	ErrParsingFailed = errors.New("parsing failed")
	ErrNotBatch      = errors.New("stream is not a batch")
	ErrNotTrainable  = errors.New("learner has no training capability")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")
	ErrUnknownFactory = errors.New("unknown factory")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// ContractViolation reports a received value whose runtime shape does not
// satisfy what the receiving handler requires. It is always fatal.
type ContractViolation struct {
	Node     string
	Port     string
	Expected string
	Actual   string
	Err      error
}

// Error implements the error interface
func (cv *ContractViolation) Error() string {
	var b strings.Builder
	b.WriteString("payload contract violation")
	if cv.Node != "" {
		fmt.Fprintf(&b, " in node %q", cv.Node)
	}
	if cv.Port != "" {
		fmt.Fprintf(&b, " on port %q", cv.Port)
	}
	fmt.Fprintf(&b, ": expected %s, got %s", cv.Expected, cv.Actual)
	if cv.Err != nil {
		fmt.Fprintf(&b, ": %v", cv.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (cv *ContractViolation) Unwrap() error {
	return cv.Err
}

// NewContractViolation describes the value a port delivered against the shape
// its handler expected.
func NewContractViolation(port, expected string, actual any, err error) *ContractViolation {
	return &ContractViolation{
		Port:     port,
		Expected: expected,
		Actual:   fmt.Sprintf("%T", actual),
		Err:      err,
	}
}

// IsTransient checks if an error is a temporary condition
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var cv *ContractViolation
	if errors.As(err, &cv) {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"temporary",
		"unavailable",
		"busy",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should end the owning node
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var cv *ContractViolation
	if errors.As(err, &cv) {
		return true
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	if errors.Is(err, ErrNoLearner) ||
		errors.Is(err, ErrNodePanic) ||
		errors.Is(err, ErrNotTrainable) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	fatalPatterns := []string{
		"fatal",
		"panic",
		"corrupted",
	}

	for _, pattern := range fatalPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsInvalid checks if an error is due to invalid configuration or wiring
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	if errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrInvalidData) ||
		errors.Is(err, ErrParsingFailed) ||
		errors.Is(err, ErrPortTypeMismatch) ||
		errors.Is(err, ErrAlreadyConnected) ||
		errors.Is(err, ErrUnknownFactory) {
		return true
	}

	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Unknown errors surfacing from a node body are treated as fatal; nothing in
	// the runtime retries them.
	if IsTransient(err) {
		return ErrorTransient
	}
	return ErrorFatal
}

// newClassified creates a new classified error
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
