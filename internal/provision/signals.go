// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// =============================================================================
// SIGNAL HANDLING
// =============================================================================

// WithSignalCancel returns a context canceled by SIGINT or SIGTERM, for
// headless runs where the signal is the only cancel button. Run teardown
// then follows the usual signal-then-kill path.
func WithSignalCancel(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
}

var (
	shutdownRequested atomic.Bool
	watchOnce         sync.Once
)

// WatchShutdownFlag latches the first SIGINT or SIGTERM into a flag the
// UI tick can poll. The TUI cannot block on a signal channel; it checks
// ShutdownRequested between frames and runs its teardown path.
func WatchShutdownFlag() {
	watchOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, unix.SIGTERM)
		go func() {
			<-ch
			shutdownRequested.Store(true)
		}()
	})
}

// ShutdownRequested reports whether a termination signal has arrived.
func ShutdownRequested() bool {
	return shutdownRequested.Load()
}
