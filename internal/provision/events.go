// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind tags a message on the run's event channel.
type EventKind string

const (
	// EventLine carries one filtered output line.
	EventLine EventKind = "line"

	// EventDone is the final message; the channel closes after it.
	EventDone EventKind = "done"
)

// Event is one message from a background run to its consumer.
type Event struct {
	Kind EventKind

	// Line and Stderr are set for EventLine.
	Line   string
	Stderr bool

	// Outcome is set for EventDone.
	Outcome *Outcome
}

// Outcome is the terminal result of a run.
type Outcome struct {
	Status   Status
	ExitCode int
	Target   string
	Duration time.Duration
	// Err is set when the run failed for a reason beyond a non-zero
	// exit, e.g. the child could not spawn.
	Err error
}

// Success reports whether the playbook completed cleanly.
func (o *Outcome) Success() bool {
	return o.Status == StatusComplete
}

// bannerRule is the separator drawn above and below the exit banner.
var bannerRule = strings.Repeat("═", 59)

// Banner renders the prominent end-of-run block appended to the output
// stream, one string per line.
func (o *Outcome) Banner() []string {
	lines := []string{"", bannerRule, ""}

	switch o.Status {
	case StatusComplete:
		lines = append(lines, "    ✓ PROVISIONING COMPLETED SUCCESSFULLY")
	case StatusCanceled:
		lines = append(lines, "    ■ PROVISIONING CANCELED")
	default:
		lines = append(lines, "    ✗ PROVISIONING FAILED")
	}

	lines = append(lines,
		"",
		fmt.Sprintf("    Exit code: %d", o.ExitCode),
		fmt.Sprintf("    Target:    %s", o.Target),
		"",
	)

	switch o.Status {
	case StatusComplete:
		lines = append(lines, "    Your server is configured and ready to use.", "")
	case StatusCanceled:
		lines = append(lines, "    The run was stopped before it finished; the host may be partially configured.", "")
	default:
		if o.Err != nil {
			lines = append(lines, fmt.Sprintf("    %s", o.Err), "")
		}
		lines = append(lines, "    Check the output above for error details.", "")
	}

	return append(lines, bannerRule, "")
}
