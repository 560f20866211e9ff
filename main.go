// rigup - A terminal front-end for ansible-driven server provisioning.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigup/internal/cli"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/ui/form"
	"github.com/jeranaias/rigup/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "2.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// Parse CLI arguments
	cmd, args := cli.Parse()

	// Route to appropriate handler
	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdRun:
		cli.HandleRun(args)
	case cli.CmdWizard:
		if err := cli.HandleWizard(args); err != nil {
			cli.HandleErrorAndExit(err)
		}
	case cli.CmdTest:
		cli.HandleTest(args)
	case cli.CmdVars:
		cli.HandleVars(args)
	case cli.CmdCache:
		if err := cli.HandleCache(args); err != nil {
			cli.HandleErrorAndExit(err)
		}
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			cli.HandleErrorAndExit(err)
		}
	case cli.CmdTOTP:
		cli.HandleTOTP(args)
	case cli.CmdDoctor:
		if err := cli.HandleDoctor(args); err != nil {
			cli.HandleErrorAndExit(err)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args) // Default to TUI
	}
}

// runTUI launches the interactive provisioning form.
func runTUI(args cli.Args) {
	defer logPanics()

	cfg := loadConfigOrExit(args)

	// RELIABILITY: Two instances editing the same cache file clobber each
	// other's saves, and two live runs against the same host are worse.
	if cfg.Run.KillDuplicates {
		provision.KillDuplicates("rigup")
	}

	// Latch SIGINT/SIGTERM into a flag the update loop polls. The TUI owns
	// the terminal, so the default signal behavior would leave it corrupted.
	provision.WatchShutdownFlag()

	theme := styles.NewTheme(cfg.UI.Theme)
	m := form.New(theme, cfg)
	defer m.Shutdown()

	// Mouse capture stays off so the terminal's select and copy keep
	// working over the output pane.
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigOrExit loads the effective configuration, honoring --config.
func loadConfigOrExit(args cli.Args) *config.Config {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config %s: %v\n", args.ConfigPath, err)
			os.Exit(1)
		}
		return cfg
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// logPanics writes a panic and its stack to ~/.rigup/crash.log before
// re-panicking. The alternate screen swallows whatever the runtime prints,
// so without this a TUI crash leaves nothing to debug from.
func logPanics() {
	r := recover()
	if r == nil {
		return
	}
	if dir, err := config.ConfigDir(); err == nil {
		if mkErr := os.MkdirAll(dir, 0700); mkErr == nil {
			crashPath := filepath.Join(dir, "crash.log")
			f, openErr := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if openErr == nil {
				fmt.Fprintf(f, "%s panic: %v\n%s\n", time.Now().Format(time.RFC3339), r, debug.Stack())
				f.Close()
				fmt.Fprintf(os.Stderr, "panic logged to %s\n", crashPath)
			}
		}
	}
	panic(r)
}
