package main

import (
	"errors"

	"captionsync/internal/services"
)

// exitError carries a specific process exit code. Silent errors have already
// been reported on stdout.
type exitError struct {
	code   int
	msg    string
	silent bool
}

func (e *exitError) Error() string {
	return e.msg
}

func failedRating(msg string) error {
	return &exitError{code: services.ExitFailed, msg: msg, silent: true}
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return services.ExitCode(err)
}

func isSilent(err error) bool {
	var exitErr *exitError
	return errors.As(err, &exitErr) && exitErr.silent
}
