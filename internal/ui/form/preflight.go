// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// PREFLIGHT CHECKS
// =============================================================================

// preflightResult is one environment check's outcome.
//
// RELIABILITY: everything here fails before anything spawns. A missing
// binary or locked key surfaces as a named check instead of a hung
// ansible process.
type preflightResult struct {
	Name    string
	Status  string // "pending", "checking", "pass", "warn", "fail"
	Message string
	Fix     string
	Field   string // form field to focus when this check fails
}

// preflightNames lists the checks in execution order.
var preflightNames = []string{
	"ansible-playbook binary",
	"Playbook checkout",
	"SSH key",
	"Run log",
	"Connection probe",
}

// beginPreflight resets the check list and starts the first check.
func (m *Model) beginPreflight() tea.Cmd {
	m.phase = PhasePreflight
	m.currentCheck = 0
	m.checks = make([]preflightResult, len(preflightNames))
	for i, name := range preflightNames {
		m.checks[i] = preflightResult{Name: name, Status: "pending"}
	}
	m.checks[0].Status = "checking"

	return tea.Batch(
		m.spinner.Start("Checking environment"),
		m.runPreflight(0),
	)
}

// runPreflight executes one check off the UI goroutine. The short pause
// keeps the sequence readable; without it the list flashes by before the
// operator can see what was verified.
func (m *Model) runPreflight(index int) tea.Cmd {
	cfg := m.cfg
	s := m.settings
	return func() tea.Msg {
		var result preflightResult
		switch index {
		case 0:
			time.Sleep(300 * time.Millisecond)
			result = checkBinary(cfg)
		case 1:
			time.Sleep(300 * time.Millisecond)
			result = checkPlaybook(cfg)
		case 2:
			time.Sleep(300 * time.Millisecond)
			result = checkSSHKey(s)
		case 3:
			time.Sleep(300 * time.Millisecond)
			result = checkRunLog(cfg)
		case 4:
			result = checkConnection(cfg, s)
		}
		result.Name = preflightNames[index]
		return preflightResultMsg{index: index, result: result}
	}
}

// preflightDone reports whether every check has a final status.
func (m *Model) preflightDone() bool {
	return m.currentCheck >= len(m.checks)
}

// preflightFailure returns the first failing check, if any.
func (m *Model) preflightFailure() (preflightResult, bool) {
	for _, c := range m.checks {
		if c.Status == "fail" {
			return c, true
		}
	}
	return preflightResult{}, false
}

func checkBinary(cfg *config.Config) preflightResult {
	path, err := exec.LookPath(cfg.Ansible.Binary)
	if err != nil {
		return preflightResult{
			Status:  "fail",
			Message: fmt.Sprintf("'%s' is not on PATH", cfg.Ansible.Binary),
			Fix:     "install Ansible, or point ansible.binary at it in ~/.rigup/config.toml",
		}
	}
	return preflightResult{Status: "pass", Message: path}
}

func checkPlaybook(cfg *config.Config) preflightResult {
	if p := cfg.Ansible.Playbook; p != "" {
		abs, err := filepath.Abs(util.ExpandHome(p))
		if err == nil {
			_, err = os.Stat(abs)
		}
		if err != nil {
			return preflightResult{
				Status:  "fail",
				Message: fmt.Sprintf("configured playbook missing: %s", p),
				Fix:     "fix ansible.playbook in ~/.rigup/config.toml",
			}
		}
		return preflightResult{Status: "pass", Message: abs}
	}

	root, err := ansible.FindRoot()
	if err != nil {
		return preflightResult{
			Status:  "fail",
			Message: ansible.PlaybookFile + " not found near the executable",
			Fix:     "run rigup from the playbook checkout, or set ansible.playbook in the config",
		}
	}
	return preflightResult{Status: "pass", Message: root}
}

func checkSSHKey(s *settings.Settings) preflightResult {
	err := sshauth.CheckKey(s.SSHKeyPath, s.SSHKeyPassphrase)
	switch {
	case err == nil:
		return preflightResult{Status: "pass", Message: "key parses and decrypts"}
	case errors.Is(err, sshauth.ErrPassphraseRequired):
		return preflightResult{
			Status:  "fail",
			Message: "key is encrypted and no passphrase is set",
			Fix:     "enter the passphrase in the Connection section",
			Field:   "ssh_key_passphrase",
		}
	case errors.Is(err, sshauth.ErrWrongPassphrase):
		return preflightResult{
			Status:  "fail",
			Message: "passphrase does not decrypt the key",
			Fix:     "re-enter the passphrase in the Connection section",
			Field:   "ssh_key_passphrase",
		}
	default:
		return preflightResult{
			Status:  "fail",
			Message: err.Error(),
			Field:   "ssh_key_path",
		}
	}
}

func checkRunLog(cfg *config.Config) preflightResult {
	path, err := cfg.RunLogPath()
	if err != nil {
		return preflightResult{
			Status:  "fail",
			Message: err.Error(),
			Fix:     "set run.log_path in the config",
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return preflightResult{
			Status:  "fail",
			Message: err.Error(),
			Fix:     "check permissions on " + filepath.Dir(path),
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return preflightResult{
			Status:  "fail",
			Message: err.Error(),
			Fix:     "check permissions on " + path,
		}
	}
	f.Close()
	return preflightResult{Status: "pass", Message: path}
}

// checkConnection probes the host over SSH. A failed probe warns instead
// of failing: the probe rides on BatchMode ssh, and hosts that only
// accept password auth still provision fine.
func checkConnection(cfg *config.Config, s *settings.Settings) preflightResult {
	if s.IPAddress == "" {
		return preflightResult{Status: "warn", Message: "no target IP yet, skipped"}
	}

	res, err := sshauth.NewTester(cfg).Probe(context.Background(), s)
	if err != nil {
		return preflightResult{
			Status:  "warn",
			Message: err.Error(),
			Fix:     "check the IP, credentials, and firewall; the run will still try",
		}
	}
	if !res.Online {
		msg := "host did not answer"
		if res.Output != "" {
			msg = util.TruncateWidth(util.StripANSI(res.Output), 70)
		}
		return preflightResult{
			Status:  "warn",
			Message: msg,
			Fix:     "check the IP, credentials, and firewall; the run will still try",
		}
	}
	return preflightResult{Status: "pass", Message: fmt.Sprintf("host answered in %s", res.Duration.Round(time.Millisecond))}
}
