// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the rigup application.
package util

import "regexp"

// ansiPattern matches CSI sequences (colors, cursor movement) and OSC
// sequences (terminal titles). ansible-playbook is run with
// ANSIBLE_NOCOLOR=1 but still emits escapes through some callback
// plugins, and ssh banners can carry them too.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]|\x1b\][^\x07]*(\x07|\x1b\\)`)

// StripANSI removes ANSI escape sequences from a line of subprocess
// output so it renders cleanly in the viewport and the run log.
func StripANSI(s string) string {
	if s == "" {
		return s
	}
	return ansiPattern.ReplaceAllString(s, "")
}
