package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrGeneration marks every failure of a text generation call.
	ErrGeneration = errors.New("text generation failed")
	// ErrEmptyResponse is returned when the provider answered without any text.
	ErrEmptyResponse = errors.New("provider returned empty response")
	// ErrRateLimited marks provider quota and rate limit rejections.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrTimeout marks calls that hit a deadline.
	ErrTimeout = errors.New("provider timeout")
	// ErrUnavailable marks provider side 5xx failures.
	ErrUnavailable = errors.New("provider unavailable")
)

// ProviderError wraps a failed provider call. It matches ErrGeneration, its
// Kind (when classified) and the underlying error with errors.Is.
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	errs := []error{ErrGeneration}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WrapError builds a ProviderError. A nil kind is derived from context errors
// so deadlines are always reported as ErrTimeout.
func WrapError(provider string, kind, err error) error {
	if err == nil {
		return nil
	}
	if kind == nil && errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// KindForStatus maps an HTTP status code reported by a provider SDK to an error kind.
func KindForStatus(code int) error {
	switch {
	case code == 429:
		return ErrRateLimited
	case code == 408 || code == 504:
		return ErrTimeout
	case code >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}

// Transient reports whether err is worth retrying by an outer policy.
func Transient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
