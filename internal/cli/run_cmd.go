// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run_cmd.go - Headless provisioning run for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: run
// Short:   Provision the target server with the cached settings
// Aliases: provision, deploy
//
// Examples:
//   rigup run                  Validate, confirm, provision
//   rigup run --yes            No confirmation prompt (cron, CI)
//   rigup run -q               Only the exit banner, no streamed output
//
// The run uses whatever the TUI or wizard last saved to the settings
// cache. The child's exit code becomes rigup's exit code. SIGINT and
// SIGTERM cancel the run; the child gets SIGTERM and, past the grace
// period, SIGKILL.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
)

// HandleRun handles the "run" command. It never returns: the process
// exits with the provisioning outcome.
func HandleRun(args Args) {
	code, err := runProvisioning(args)
	if err != nil {
		DisplayError(err)
		os.Exit(GetExitCode(err))
	}
	os.Exit(code)
}

// runProvisioning drives one headless run end to end and returns the
// exit code to report.
func runProvisioning(args Args) (int, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return 0, err
	}

	s, err := settings.Load()
	if err != nil {
		return 0, WrapError(err, "loading cached settings")
	}
	s.Normalize()

	problems := s.Validate()
	for _, w := range problems.Warnings() {
		fmt.Printf("%s %s\n", WarningStyle.Render("[WARN]"), w.Message)
	}
	if errs := problems.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("%s %s\n", ErrorStyle.Render("[ERROR]"), e.Message)
		}
		return 0, fmt.Errorf("settings are not valid for a run; fix them in the TUI or wizard")
	}

	inv, err := ansible.NewInvocation(cfg, s)
	if err != nil {
		return 0, err
	}

	ok, err := ConfirmRun(args.Yes, inv.Target(), inv.Preview())
	if err != nil {
		return 0, err
	}
	if !ok {
		ShowCancellationMessage()
		return ExitSuccess, nil
	}

	// Key check happens before the child spawns so a bad passphrase
	// fails here, not twelve tasks into the playbook.
	agent, err := prepareKey(cfg, s)
	if err != nil {
		return 0, err
	}
	if agent != nil {
		defer agent.Kill()
		inv.ExtraEnv = append(inv.ExtraEnv, agent.Env()...)
	}

	ctx, stop := provision.WithSignalCancel(context.Background())
	defer stop()

	runner := provision.NewRunner(cfg)
	_, events, err := runner.Start(ctx, inv)
	if err != nil {
		return 0, err
	}

	outcome := drainEvents(events, args.Quiet)
	return exitCodeFor(outcome), nil
}

// prepareKey verifies the SSH key and, when it is passphrase
// protected, starts a one-run ssh-agent holding the decrypted key.
// Returns nil when no agent is needed.
func prepareKey(cfg *config.Config, s *settings.Settings) (*sshauth.Agent, error) {
	keyPath, err := sshauth.ResolveKeyPath(s.SSHKeyPath)
	if err != nil {
		return nil, err
	}

	passphrase := s.SSHKeyPassphrase
	err = sshauth.CheckKey(keyPath, passphrase)

	// A key that needs a passphrase we don't have yet is a prompt, not
	// a failure.
	for attempts := 0; attempts < 3; attempts++ {
		switch {
		case err == nil:
			if passphrase == "" {
				return nil, nil
			}
			return startAgentWithKey(cfg, keyPath, passphrase)

		case errors.Is(err, sshauth.ErrPassphraseRequired):
			passphrase, err = promptPassphrase(fmt.Sprintf("Passphrase for %s", keyPath))
			if err != nil {
				return nil, err
			}

		case errors.Is(err, sshauth.ErrWrongPassphrase):
			fmt.Println(ErrorStyle.Render("Wrong passphrase, try again."))
			passphrase, err = promptPassphrase(fmt.Sprintf("Passphrase for %s", keyPath))
			if err != nil {
				return nil, err
			}

		default:
			return nil, err
		}

		if err == nil {
			err = sshauth.CheckKey(keyPath, passphrase)
		}
	}

	return nil, fmt.Errorf("could not unlock private key %s", keyPath)
}

// startAgentWithKey spawns the per-run agent and loads the key into it.
func startAgentWithKey(cfg *config.Config, keyPath, passphrase string) (*sshauth.Agent, error) {
	agent, err := sshauth.StartAgent(context.Background(), cfg.SSH.AgentBinary)
	if err != nil {
		return nil, err
	}
	if err := agent.AddKey(keyPath, passphrase); err != nil {
		agent.Kill()
		return nil, err
	}
	return agent, nil
}

// drainEvents consumes the run's event stream, printing lines as they
// arrive and the exit banner at the end.
func drainEvents(events <-chan provision.Event, quiet bool) *provision.Outcome {
	var outcome *provision.Outcome
	for ev := range events {
		switch ev.Kind {
		case provision.EventLine:
			if quiet {
				continue
			}
			if ev.Stderr {
				fmt.Println(RenderConditional(StderrStyle, ev.Line))
			} else {
				fmt.Println(ev.Line)
			}
		case provision.EventDone:
			outcome = ev.Outcome
		}
	}

	if outcome != nil {
		for _, line := range outcome.Banner() {
			fmt.Println(line)
		}
	}
	return outcome
}

// exitCodeFor maps a run outcome to the process exit code.
func exitCodeFor(o *provision.Outcome) int {
	if o == nil {
		return ExitGeneralError
	}
	switch o.Status {
	case provision.StatusComplete:
		return ExitSuccess
	case provision.StatusCanceled:
		return ExitCancelled
	default:
		if o.ExitCode > 0 {
			return o.ExitCode
		}
		return ExitGeneralError
	}
}

// loadConfig loads the effective configuration, honoring --config.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, WrapError(err, "loading config")
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapError(err, "loading config")
	}
	return cfg, nil
}
