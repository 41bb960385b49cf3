// Command verifycli begins a wallet verification from a terminal and waits
// for the holder to present their credential.
package main

import (
	"errors"
	"fmt"
	"os"

	"talentmatch/internal/verification/models"
)

const (
	exitFailed  = 1
	exitTimeout = 2
	exitUsage   = 64
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var usage *usageError
	switch {
	case errors.As(err, &usage):
		return exitUsage
	case errors.Is(err, models.ErrVerificationTimeout):
		return exitTimeout
	default:
		return exitFailed
	}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
