package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoInput      = errors.New("no input found")
	ErrExtraction   = errors.New("extraction failed")
	ErrOutput       = errors.New("output failed")
	ErrNotFound     = errors.New("not found")
	ErrFinalized    = errors.New("accumulator finalized")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Describe returns the short category shown to users in place of the full error.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case IsKind(err, ErrNoInput):
		return ErrNoInput.Error()
	case IsKind(err, ErrInvalidInput):
		return ErrInvalidInput.Error()
	case IsKind(err, ErrExtraction):
		return ErrExtraction.Error()
	case IsKind(err, ErrOutput):
		return ErrOutput.Error()
	case IsKind(err, ErrTemporary):
		return ErrTemporary.Error()
	case IsKind(err, ErrNotFound):
		return ErrNotFound.Error()
	default:
		return "internal error"
	}
}

func errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
