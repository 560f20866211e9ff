// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompts.go - Shared interactive input helpers for rigup commands.
//
// USABILITY: TTY detection for proper terminal handling
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

var inputReader = bufio.NewReader(os.Stdin)
var inputMutex sync.Mutex

// promptInput reads one trimmed line from stdin. Read failures come
// back as an empty answer, which every caller treats as "no".
func promptInput(prompt string) string {
	inputMutex.Lock()
	defer inputMutex.Unlock()

	fmt.Print(prompt)
	line, err := inputReader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// promptPassphrase reads sensitive input without echo, keeping secrets
// out of the scrollback and the wizard history file.
func promptPassphrase(prompt string) (string, error) {
	if err := RequiresTTY("read a passphrase"); err != nil {
		return "", err
	}

	inputMutex.Lock()
	defer inputMutex.Unlock()

	fmt.Print(prompt)
	if !strings.HasSuffix(prompt, ": ") && !strings.HasSuffix(prompt, " ") {
		fmt.Print(": ")
	}

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(raw), nil
}
