// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provision owns the lifecycle of one ansible-playbook child:
// spawn, line-by-line stdout/stderr streaming through the output filter,
// cancellation with a SIGTERM-then-SIGKILL grace window, and the Done
// event that carries the outcome.
//
// RELIABILITY: exactly one run may be live at a time. Events flow over a
// single buffered channel that the consumer must drain until the Done
// event; the channel is closed after it.
package provision
