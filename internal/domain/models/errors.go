package models

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrorKind classifies why a signal source did not contribute normally
type ErrorKind string

const (
	ErrorKindInputValidation   ErrorKind = "input_validation"
	ErrorKindConfiguration     ErrorKind = "configuration"
	ErrorKindTransientProvider ErrorKind = "transient_provider"
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
	ErrorKindCancelled         ErrorKind = "cancelled"
)

var (
	ErrNotConfigured          = errors.New("provider not configured")
	ErrEmptyInput             = errors.New("input is empty")
	ErrInputTooLarge          = errors.New("input exceeds size limit")
	ErrUnsupportedAudioFormat = errors.New("unsupported audio format")
	ErrInvalidURL             = errors.New("invalid url")
)

// InputValidationError is the only error an engine operation returns to its caller
type InputValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputValidationError) Error() string {
	if e.Reason == "" && e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputValidationError) Unwrap() error {
	return e.Err
}

// NewInputValidationError builds an InputValidationError wrapping one of the input sentinels
func NewInputValidationError(field string, err error, reason string) *InputValidationError {
	return &InputValidationError{Field: field, Reason: reason, Err: err}
}

// IsInputValidation reports whether err is, or wraps, an InputValidationError
func IsInputValidation(err error) bool {
	var ive *InputValidationError
	return errors.As(err, &ive)
}

// ProviderError describes a failed remote call to a signal provider
type ProviderError struct {
	Kind       ErrorKind
	Source     string
	StatusCode int
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewTransientError wraps a network failure or non-success status from a provider.
// A *url.Error is reduced to its cause: the request URL may carry an API key.
func NewTransientError(source string, status int, message string, err error) *ProviderError {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	return &ProviderError{
		Kind:       ErrorKindTransientProvider,
		Source:     source,
		StatusCode: status,
		Message:    message,
		Underlying: err,
	}
}

// KindOf maps an error returned by a signal source onto the taxonomy.
// Context errors are checked first so a cancelled request is never reported as a provider fault.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ErrorKindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTransientProvider
	case errors.Is(err, ErrNotConfigured):
		return ErrorKindConfiguration
	case IsInputValidation(err):
		return ErrorKindInputValidation
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	return ErrorKindTransientProvider
}
