// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"time"

	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/sshauth"
)

// preflightResultMsg reports one finished environment check.
type preflightResultMsg struct {
	index  int
	result preflightResult
}

// runStartedMsg carries the handles of a freshly launched run.
type runStartedMsg struct {
	run    *provision.Run
	events <-chan provision.Event
	agent  *sshauth.Agent
}

// runFailedMsg reports that the run could not start. When the failure
// maps to a form field (bad passphrase, missing key) the field id tells
// the form where to put the cursor.
type runFailedMsg struct {
	err   error
	field string
}

// runEventMsg wraps one event drained from the runner's channel.
type runEventMsg struct {
	ev provision.Event
}

// runStreamClosedMsg signals that the event channel is exhausted.
type runStreamClosedMsg struct{}

// cacheChangedMsg fires when another process rewrote the settings cache.
type cacheChangedMsg struct{}

// testResultMsg reports the outcome of a connection probe.
type testResultMsg struct {
	result *sshauth.Result
	err    error
}

// shutdownTickMsg drives the periodic poll of the latched termination
// signal, since the TUI cannot block on a signal channel.
type shutdownTickMsg time.Time
