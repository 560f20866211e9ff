// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
)

// =============================================================================
// RUN LAUNCH
// =============================================================================

// requestRun is the entry point for the run key and the review action.
// Validation gates the preflight: blocking problems put the cursor on
// the first offending field instead of spawning anything.
func (m *Model) requestRun() tea.Cmd {
	m.revalidate()
	if !m.problems.OK() {
		first := m.problems.Errors()[0]
		m.focusField(first.Field)
		m.setStatus(first.Message, true)
		return nil
	}
	m.saveSettings()
	return m.beginPreflight()
}

// startRun resolves the invocation, prepares key auth and launches the
// playbook. Runs off the UI goroutine; the result comes back as a
// runStartedMsg or runFailedMsg.
func (m *Model) startRun() tea.Cmd {
	cfg := m.cfg
	s := m.settings
	runner := m.runner
	return func() tea.Msg {
		inv, err := ansible.NewInvocation(cfg, s)
		if err != nil {
			return runFailedMsg{err: err}
		}

		agent, err := agentForRun(cfg, s)
		if err != nil {
			return runFailedMsg{err: err, field: fieldForKeyError(err)}
		}
		if agent != nil {
			inv.ExtraEnv = append(inv.ExtraEnv, agent.Env()...)
		}

		run, events, err := runner.Start(context.Background(), inv)
		if err != nil {
			if agent != nil {
				agent.Kill()
			}
			return runFailedMsg{err: err}
		}
		return runStartedMsg{run: run, events: events, agent: agent}
	}
}

// agentForRun mirrors the headless run's key preparation without the
// prompting loop: the passphrase must already be in the form. An
// unencrypted key needs no agent at all.
func agentForRun(cfg *config.Config, s *settings.Settings) (*sshauth.Agent, error) {
	keyPath, err := sshauth.ResolveKeyPath(s.SSHKeyPath)
	if err != nil {
		return nil, err
	}
	if err := sshauth.CheckKey(keyPath, s.SSHKeyPassphrase); err != nil {
		return nil, err
	}
	if s.SSHKeyPassphrase == "" {
		return nil, nil
	}

	agent, err := sshauth.StartAgent(context.Background(), cfg.SSH.AgentBinary)
	if err != nil {
		return nil, err
	}
	if err := agent.AddKey(keyPath, s.SSHKeyPassphrase); err != nil {
		agent.Kill()
		return nil, err
	}
	return agent, nil
}

// fieldForKeyError maps key failures onto the form field that fixes them.
func fieldForKeyError(err error) string {
	switch {
	case errors.Is(err, sshauth.ErrPassphraseRequired),
		errors.Is(err, sshauth.ErrWrongPassphrase):
		return "ssh_key_passphrase"
	default:
		return "ssh_key_path"
	}
}

// waitForEvent blocks on the runner's channel and re-arms after every
// message, the standard Bubble Tea channel drain.
func waitForEvent(ch <-chan provision.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return runStreamClosedMsg{}
		}
		return runEventMsg{ev: ev}
	}
}

// startTest probes the target over SSH without provisioning anything.
func (m *Model) startTest() tea.Cmd {
	cfg := m.cfg
	s := m.settings
	return func() tea.Msg {
		res, err := sshauth.NewTester(cfg).Probe(context.Background(), s)
		return testResultMsg{result: res, err: err}
	}
}

// styleEventLine renders one playbook output line for the viewport.
func (m *Model) styleEventLine(ev provision.Event) string {
	if ev.Stderr {
		return m.theme.OutputStderr.Render(ev.Line)
	}
	return m.theme.OutputLine.Render(ev.Line)
}

// finishRun tears down per-run state once the stream reports an outcome.
func (m *Model) finishRun(outcome *provision.Outcome) {
	m.outcome = outcome
	m.phase = PhaseDone
	m.spinner.Stop()
	if m.agent != nil {
		m.agent.Kill()
		m.agent = nil
	}
	if outcome != nil {
		for _, line := range outcome.Banner() {
			m.appendLine(line)
		}
	}
	m.syncViewport()
}
