// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sshauth handles the SSH side of a provisioning run: private
// key inspection, a per-run ssh-agent for passphrase-protected keys,
// and the pre-flight reachability probe.
//
// SECURITY: passphrase-protected keys are decrypted in-process and
// handed to the agent over its unix socket. The passphrase itself never
// reaches a child environment, a command line, or the filesystem.
package sshauth
