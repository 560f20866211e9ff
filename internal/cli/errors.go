// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for rigup commands.
//
// ERROR HANDLING: Errors must not be silently ignored
//
// Handlers return errors; main decides the exit code. The one
// exception is a finished provisioning run, whose child exit code is
// passed through untouched so scripts can gate on it.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration or settings problem
	ExitConfigError = 3
	// ExitAuthError indicates an SSH key or passphrase failure
	ExitAuthError = 4
	// ExitConnectionError indicates the target is unreachable
	ExitConnectionError = 5
	// ExitCancelled indicates the operator or a signal stopped the run
	ExitCancelled = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewValidationError creates a new validation error. The example shows
// the user a working invocation; pass "" when there is no good one.
func NewValidationError(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "required argument missing",
		Example: usage,
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError displays an error in a consistent format.
func DisplayError(err error) {
	if err == nil {
		return
	}
	fmt.Println()
	fmt.Printf("%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	fmt.Println()
}

// HandleErrorAndExit displays an error and exits with an appropriate
// code. Use for fatal errors in main command handlers.
func HandleErrorAndExit(err error) {
	if err == nil {
		return
	}
	DisplayError(err)
	os.Exit(GetExitCode(err))
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var ttyErr *TTYRequiredError
	if errors.As(err, &ttyErr) {
		return ExitUsageError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "passphrase") ||
		strings.Contains(errMsg, "private key") ||
		strings.Contains(errMsg, "ssh-agent") {
		return ExitAuthError
	}

	if strings.Contains(errMsg, "config") ||
		strings.Contains(errMsg, "settings") ||
		strings.Contains(errMsg, "cache") {
		return ExitConfigError
	}

	if strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "timed out") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
