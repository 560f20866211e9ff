// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation prompts for rigup commands.
//
// USABILITY: TTY detection for proper terminal handling
//
// One pattern everywhere: --yes bypasses the prompt, a missing TTY
// demands --yes instead of hanging, and everything else asks.
package cli

import (
	"fmt"
	"strings"
)

// RequireConfirmation checks whether the user has confirmed an action
// that changes a machine or throws away state.
//
// Flow:
//  1. If yesFlag is true (--yes), return true immediately
//  2. If stdin is not a TTY, return an error pointing at --yes
//  3. Otherwise prompt and read y/N
func RequireConfirmation(yesFlag bool, action string) (bool, error) {
	if yesFlag {
		return true, nil
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --yes")
	}

	fmt.Println()
	input := promptInput(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	input = strings.ToLower(input)
	return input == "y" || input == "yes", nil
}

// ConfirmRun shows the run summary and asks before provisioning. The
// details keep the operator from pointing a playbook at the wrong box.
func ConfirmRun(yesFlag bool, target, preview string) (bool, error) {
	if yesFlag {
		return true, nil
	}

	if !IsTTY() {
		return false, fmt.Errorf("confirmation required but stdin is not a terminal; use --yes")
	}

	fmt.Println()
	fmt.Println(SectionStyle.Render("About to provision"))
	fmt.Println(RenderSeparator(50))
	fmt.Printf("  %s%s\n", RenderLabel("Target:"), ValueStyle.Render(target))
	fmt.Printf("  %s%s\n", RenderLabel("Command:"), DimStyle.Render(preview))
	fmt.Println()

	input := strings.ToLower(promptInput("Proceed? [y/N]: "))
	return input == "y" || input == "yes", nil
}

// ShowCancellationMessage displays a standard cancellation message.
func ShowCancellationMessage() {
	fmt.Println()
	fmt.Println(DimStyle.Render("Cancelled."))
	fmt.Println()
}
