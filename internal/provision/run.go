// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// RUN STATUS
// =============================================================================

// Status is the current state of a provisioning run.
type Status string

const (
	// StatusQueued means the run was created but the child has not spawned.
	StatusQueued Status = "Queued"

	// StatusRunning means the child process is live.
	StatusRunning Status = "Running"

	// StatusComplete means the playbook finished with exit code 0.
	StatusComplete Status = "Complete"

	// StatusFailed means the playbook exited non-zero or could not run.
	StatusFailed Status = "Failed"

	// StatusCanceled means the operator or a signal stopped the run.
	StatusCanceled Status = "Canceled"
)

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// tailLines is how much recent output a Run retains for failure
// summaries. The full stream lives in the UI scrollback and the run log.
const tailLines = 15

// =============================================================================
// RUN
// =============================================================================

// Run is one provisioning attempt against one target host.
type Run struct {
	// ID uniquely identifies the run in logs and summaries.
	ID string

	// Target is the user@host the run is aimed at.
	Target string

	// Preview is the redacted command line.
	Preview string

	status    Status
	startTime time.Time
	endTime   time.Time
	exitCode  int
	errMsg    string
	tail      []string

	cancel context.CancelFunc
	mu     sync.RWMutex
}

// NewRun creates a queued run.
func NewRun(target, preview string) *Run {
	return &Run{
		ID:       uuid.New().String(),
		Target:   target,
		Preview:  preview,
		status:   StatusQueued,
		exitCode: -1,
	}
}

// SetStatus updates the status, validating the transition.
// Valid transitions: Queued -> Running -> Complete/Failed/Canceled, and
// Queued -> Canceled for runs stopped before spawn.
func (r *Run) SetStatus(status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !isValidTransition(r.status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", r.status, status)
	}
	r.status = status
	return nil
}

func isValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusRunning || to == StatusCanceled
	case StatusRunning:
		return to == StatusComplete || to == StatusFailed || to == StatusCanceled
	default:
		// Terminal states stay terminal.
		return false
	}
}

// GetStatus returns the current status.
func (r *Run) GetStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// MarkStarted records the spawn.
func (r *Run) MarkStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusRunning
	r.startTime = time.Now()
}

// MarkComplete records a clean exit.
func (r *Run) MarkComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusComplete
	r.exitCode = 0
	r.endTime = time.Now()
}

// MarkFailed records a non-zero exit or a spawn failure.
func (r *Run) MarkFailed(exitCode int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusFailed
	r.exitCode = exitCode
	if err != nil {
		r.errMsg = err.Error()
	}
	r.endTime = time.Now()
}

// MarkCanceled records an operator or signal stop.
func (r *Run) MarkCanceled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusCanceled
	r.endTime = time.Now()
}

// ExitCode returns the child's exit code, -1 before the child exits or
// when it died on a signal.
func (r *Run) ExitCode() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exitCode
}

// Err returns the failure message, empty unless the run failed.
func (r *Run) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

// SetCancelFunc stores the context cancel for this run. Called once
// during spawn, before the run is visible to any other goroutine.
func (r *Run) SetCancelFunc(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = cancel
}

// Cancel stops the run if it is still queued or running. Returns true
// when a cancellation was actually triggered.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusRunning && r.status != StatusQueued {
		return false
	}
	if r.cancel != nil {
		r.cancel()
	}
	// The runner confirms with MarkCanceled once the child is reaped;
	// cancellation here only fires the context.
	return true
}

// Duration returns how long the run has been going, or took.
func (r *Run) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.startTime.IsZero() {
		return 0
	}
	if r.endTime.IsZero() {
		return time.Since(r.startTime)
	}
	return r.endTime.Sub(r.startTime)
}

// IsRunning reports whether the child is live.
func (r *Run) IsRunning() bool {
	return r.GetStatus() == StatusRunning
}

// IsDone reports whether the run reached a terminal state.
func (r *Run) IsDone() bool {
	switch r.GetStatus() {
	case StatusComplete, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// appendTail records a line in the bounded recent-output buffer.
func (r *Run) appendTail(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tail = append(r.tail, line)
	if len(r.tail) > tailLines {
		r.tail = r.tail[len(r.tail)-tailLines:]
	}
}

// Tail returns a copy of the last few output lines.
func (r *Run) Tail() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.tail...)
}

// Summary returns a one-line description for status bars and logs.
func (r *Run) Summary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := fmt.Sprintf("[%s] %s - %s", r.ID[:8], r.Target, r.status)
	if !r.startTime.IsZero() {
		d := r.endTime.Sub(r.startTime)
		if r.endTime.IsZero() {
			d = time.Since(r.startTime)
		}
		summary += fmt.Sprintf(" (%.1fs)", d.Seconds())
	}
	return summary
}
