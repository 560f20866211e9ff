// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// test_cmd.go - Connection test command for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: test
// Short:   Probe the target host over SSH with the cached settings
// Aliases: check-connection
//
// Examples:
//   rigup test                 Probe the target from the cache
//   rigup test --json          Machine-readable result
//
// Exit codes:
//   0  Host reachable
//   5  Host unreachable or probe failed
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
)

// HandleTest handles the "test" command. It never returns.
func HandleTest(args Args) {
	if err := runConnectionTest(args); err != nil {
		HandleErrorAndExit(err)
	}
	os.Exit(ExitSuccess)
}

func runConnectionTest(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	s, err := settings.Load()
	if err != nil {
		return WrapError(err, "loading cached settings")
	}
	s.Normalize()

	if s.IPAddress == "" {
		return NewValidationError("ip_address", "", "no target host in the settings cache", "rigup wizard")
	}

	if !args.Quiet && !args.JSON {
		fmt.Printf("Probing %s ...\n", ValueStyle.Render(s.Target()))
	}

	// Ctrl+C during a hung probe should abort the ssh child, not strand it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := sshauth.NewTester(cfg).Probe(ctx, s)
	if err != nil {
		return WrapError(err, "connection test")
	}

	if args.JSON {
		return printProbeJSON(s.Target(), res)
	}

	if res.Online {
		fmt.Printf("%s %s is reachable (%s)\n",
			SuccessStyle.Render("[OK]"), s.Target(), res.Duration.Round(time.Millisecond))
		return nil
	}

	fmt.Printf("%s %s is not reachable (%s)\n",
		ErrorStyle.Render("[FAIL]"), s.Target(), res.Duration.Round(time.Millisecond))
	if res.Output != "" {
		fmt.Println(DimStyle.Render(res.Output))
	}
	os.Exit(ExitConnectionError)
	return nil
}

// printProbeJSON emits one result object for scripts.
func printProbeJSON(target string, res *sshauth.Result) error {
	out := struct {
		Target     string `json:"target"`
		Online     bool   `json:"online"`
		DurationMS int64  `json:"duration_ms"`
		Output     string `json:"output,omitempty"`
	}{
		Target:     target,
		Online:     res.Online,
		DurationMS: res.Duration.Milliseconds(),
		Output:     res.Output,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if !res.Online {
		os.Exit(ExitConnectionError)
	}
	return nil
}
