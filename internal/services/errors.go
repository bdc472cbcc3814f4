package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error markers. Wrap tags errors with one of these so callers can classify
// them with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Process exit codes shared by the CLI and batch worker.
const (
	ExitOK           = 0
	ExitFailed       = 1
	ExitInvalidInput = 2
	ExitExternalTool = 3
)

// Wrap returns "marker: stage: operation: message: err" with blank parts
// omitted. A nil marker means ErrTransient. Deadline errors additionally
// carry ErrTimeout.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	var parts []string
	for _, p := range []string{stage, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	detail := "service failure"
	if len(parts) > 0 {
		detail = strings.Join(parts, ": ")
	}
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", marker, detail)
	case marker != ErrTimeout && errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w: %s: %w", marker, ErrTimeout, detail, err)
	default:
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
}

func isInputError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotFound)
}

// ExitCode maps a run error to the process exit code. Whether a finished
// rating passed is decided by the caller.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case isInputError(err):
		return ExitInvalidInput
	case errors.Is(err, ErrExternalTool), errors.Is(err, ErrTimeout):
		return ExitExternalTool
	}
	return ExitFailed
}

// Retryable reports whether re-running the same input could succeed. Bad
// input and configuration never do.
func Retryable(err error) bool {
	return err != nil && !isInputError(err)
}
