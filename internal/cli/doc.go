// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigup command line: argument parsing, the
// headless provisioning run, the interactive settings wizard, and the
// management commands (cache, config, vars, test, totp, doctor).
//
// The TUI is the default surface; everything here exists so the same
// provisioning engine can be driven from scripts, cron, and CI where no
// terminal UI is wanted.
package cli
