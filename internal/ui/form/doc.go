// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package form implements the provisioning form, the main view of the
rigup TUI.

The form is a single Bubble Tea model that moves through four phases:

	Form -> Preflight -> Running -> Done

# Form

Six sections (Connection, Server Stack, Hardening, Access & 2FA,
Maintenance, Review) expose the same settings record the CLI commands
use. Sections are rebuilt from the live settings on every frame, so
dependent fields (the admin user under "Create admin user", the tool
list under "CLI tool set") appear and disappear with their parent
switch. Every mutation saves the cache through the settings package, so
form state survives quits and crashes.

A cache watcher (fsnotify on the cache's directory, since saves rename
a temp file into place) reloads the form when another process rewrites
the file. Saves made by the form itself are recognized by timing and
skipped.

# Preflight

Before spawning anything the model runs named environment checks one at
a time, each off the UI goroutine: the ansible-playbook binary, the
playbook checkout, the SSH key (including passphrase verification), the
run log, and a best-effort connection probe. A failing check aborts the
launch and focuses the form field that fixes it.

# Running

The provision runner streams output over a channel; the model drains it
with the usual re-arming command, styles stderr lines apart, and keeps
the tail in view unless the operator scrolls back. Cancel asks the
runner for a graceful stop and lets the stream wind down naturally.

# Done

The outcome banner and scrollback stay up until the operator returns to
the form or quits. The ssh-agent spawned for the run, if any, is killed
as soon as the outcome arrives.
*/
package form
