// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: doctor [subcommand]
// Short:   Check the environment before a provisioning run
// Aliases: diag, diagnose
//
// Subcommands:
//   (default)           Run all health checks
//   fix                 Run checks and attempt auto-fixes
//
// Examples:
//   rigup doctor                 Run all health checks
//   rigup doctor --json          Results in JSON format
//   rigup doctor fix             Run checks and attempt auto-fixes
//
// Health Checks Performed:
//   1. Ansible Installed  - ansible-playbook binary on PATH
//   2. SSH Installed      - ssh binary on PATH
//   3. SSH Agent          - ssh-agent binary on PATH
//   4. Playbook Found     - playbook.yml resolvable
//   5. Config Valid       - tool configuration loads and validates
//   6. Settings Cache     - cached settings readable
//   7. SSH Key            - configured private key exists, passphrase state
//   8. Run Log Writable   - log directory accepts writes
//
// Exit Codes:
//   0   All checks passed (warnings allowed)
//   1   One or more checks failed
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the rendered status tag.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	case CheckFail:
		return ErrorStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix command or instruction
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("  -> "+c.Fix)
	}
	return result
}

// autoFixes maps fix strings to in-process repairs. Only rigup's own
// state is fixable from here; missing system binaries stay manual.
var autoFixes = map[string]func() error{
	"Run: rigup config reset": func() error {
		return config.Save(config.Default())
	},
	"Run: rigup cache clear": func() error {
		return settings.Default().Save()
	},
}

// TryFix attempts to repair the issue when a known fix exists.
func (c *HealthCheck) TryFix() error {
	if c.Fix == "" || c.Status == CheckPass {
		return nil
	}
	fix, ok := autoFixes[c.Fix]
	if !ok {
		return fmt.Errorf("manual fix required: %s", c.Fix)
	}
	fmt.Printf("  Attempting fix: %s\n", strings.TrimPrefix(c.Fix, "Run: "))
	return fix()
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor handles the "doctor" command.
func HandleDoctor(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		cfg = config.Default()
	}

	checks := runAllChecks(cfg)

	passed, warned, failed := 0, 0, 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	if args.JSON {
		return doctorJSON(checks, passed, warned, failed)
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("rigup Doctor"))
	fmt.Println(RenderSeparator(41))
	fmt.Println()

	for _, check := range checks {
		fmt.Println(check.Render())
	}

	fmt.Println()
	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))

	summaryParts := []string{
		fmt.Sprintf("%d passed", passed),
	}
	if warned > 0 {
		summaryParts = append(summaryParts, WarningStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summaryParts = append(summaryParts, ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Println(DimStyle.Render(strings.Join(summaryParts, ", ")))
	fmt.Println()

	if args.Subcommand == "fix" && (warned > 0 || failed > 0) {
		fmt.Println(TitleStyle.Render("Attempting Auto-Fix..."))
		fmt.Println()

		for _, check := range checks {
			if check.Status != CheckPass && check.Fix != "" {
				if err := check.TryFix(); err != nil {
					fmt.Printf("  %s Could not fix %s: %s\n",
						WarningStyle.Render("[!!]"), check.Name, err)
				} else {
					fmt.Printf("  %s Fixed %s\n",
						SuccessStyle.Render("[OK]"), check.Name)
				}
			}
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// doctorJSON emits the check results for scripts and CI gates.
func doctorJSON(checks []*HealthCheck, passed, warned, failed int) error {
	type jsonCheck struct {
		Name    string `json:"name"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Fix     string `json:"fix,omitempty"`
	}

	out := struct {
		Checks  []jsonCheck `json:"checks"`
		Summary struct {
			Passed  int  `json:"passed"`
			Warned  int  `json:"warned"`
			Failed  int  `json:"failed"`
			Healthy bool `json:"healthy"`
		} `json:"summary"`
	}{}

	for _, check := range checks {
		out.Checks = append(out.Checks, jsonCheck{
			Name:    check.Name,
			Status:  strings.ToLower(check.Status.String()),
			Message: check.Message,
			Fix:     check.Fix,
		})
	}
	out.Summary.Passed = passed
	out.Summary.Warned = warned
	out.Summary.Failed = failed
	out.Summary.Healthy = failed == 0

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// runAllChecks runs all health checks and returns the results.
func runAllChecks(cfg *config.Config) []*HealthCheck {
	var checks []*HealthCheck

	checks = append(checks, checkAnsibleInstalled(cfg))
	checks = append(checks, checkSSHInstalled(cfg))
	checks = append(checks, checkSSHAgent(cfg))
	checks = append(checks, checkPlaybookFound(cfg))
	checks = append(checks, checkConfigValid())
	checks = append(checks, checkSettingsCache())
	checks = append(checks, checkSSHKey())
	checks = append(checks, checkRunLogWritable(cfg))

	return checks
}

// checkAnsibleInstalled checks that the playbook runner is on PATH.
func checkAnsibleInstalled(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Ansible Installed"}

	if _, err := exec.LookPath(cfg.Ansible.Binary); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("%s not found on PATH", cfg.Ansible.Binary)
		check.Fix = "Install ansible (apt install ansible / pipx install ansible)"
		return check
	}

	// First line of --version carries the release, e.g.
	// "ansible-playbook [core 2.16.3]".
	version := ""
	if out, err := exec.Command(cfg.Ansible.Binary, "--version").Output(); err == nil {
		if lines := strings.SplitN(string(out), "\n", 2); len(lines) > 0 {
			version = strings.TrimSpace(lines[0])
		}
	}

	check.Status = CheckPass
	if version != "" {
		check.Message = version
	} else {
		check.Message = fmt.Sprintf("%s found", cfg.Ansible.Binary)
	}
	return check
}

// checkSSHInstalled checks for the ssh client.
func checkSSHInstalled(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "SSH Installed"}

	if _, err := exec.LookPath(cfg.SSH.Binary); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("%s not found on PATH", cfg.SSH.Binary)
		check.Fix = "Install the OpenSSH client (apt install openssh-client)"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s found", cfg.SSH.Binary)
	return check
}

// checkSSHAgent checks for ssh-agent. Only passphrase-protected keys
// need it, so missing is a warning, not a failure.
func checkSSHAgent(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "SSH Agent"}

	if _, err := exec.LookPath(cfg.SSH.AgentBinary); err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("%s not found, passphrase-protected keys will not work", cfg.SSH.AgentBinary)
		check.Fix = "Install the OpenSSH client (apt install openssh-client)"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s found", cfg.SSH.AgentBinary)
	return check
}

// checkPlaybookFound checks that playbook.yml is resolvable.
func checkPlaybookFound(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Playbook Found"}

	if cfg.Ansible.Playbook != "" {
		if _, err := os.Stat(cfg.Ansible.Playbook); err != nil {
			check.Status = CheckFail
			check.Message = fmt.Sprintf("configured playbook missing: %s", cfg.Ansible.Playbook)
			check.Fix = "Run: rigup config set ansible.playbook <path>"
			return check
		}
		check.Status = CheckPass
		check.Message = fmt.Sprintf("playbook at %s", cfg.Ansible.Playbook)
		return check
	}

	root, err := ansible.FindRoot()
	if err != nil {
		check.Status = CheckFail
		check.Message = ansible.PlaybookFile + " not found above the executable or working directory"
		check.Fix = "Run: rigup config set ansible.playbook <path>"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("playbook root at %s", root)
	return check
}

// checkConfigValid checks that the tool configuration loads.
func checkConfigValid() *HealthCheck {
	check := &HealthCheck{Name: "Config Valid"}

	path, err := config.ConfigPathTOML()
	if err != nil {
		check.Status = CheckWarn
		check.Message = "could not determine config path"
		return check
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		check.Status = CheckPass
		check.Message = "config valid (using defaults)"
		return check
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("config invalid: %s", err)
		check.Fix = "Run: rigup config reset"
		return check
	}

	check.Status = CheckPass
	check.Message = "config valid"
	return check
}

// checkSettingsCache checks the cached provisioning settings.
func checkSettingsCache() *HealthCheck {
	check := &HealthCheck{Name: "Settings Cache"}

	path, err := settings.CachePath()
	if err != nil {
		check.Status = CheckWarn
		check.Message = "could not determine cache path"
		return check
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		check.Status = CheckPass
		check.Message = "no settings cache yet (using defaults)"
		return check
	}

	s, err := settings.Load()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("settings cache unreadable: %s", err)
		check.Fix = "Run: rigup cache clear"
		return check
	}

	check.Status = CheckPass
	if s.IPAddress != "" {
		check.Message = fmt.Sprintf("settings cached for %s", s.Target())
	} else {
		check.Message = "settings cached, no target set yet"
	}
	return check
}

// checkSSHKey checks the configured private key.
func checkSSHKey() *HealthCheck {
	check := &HealthCheck{Name: "SSH Key"}

	s, err := settings.Load()
	if err != nil {
		// The cache check reports this failure; do not double up.
		check.Status = CheckWarn
		check.Message = "skipped, settings cache unreadable"
		return check
	}

	keyPath, err := sshauth.ResolveKeyPath(s.SSHKeyPath)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("key not found: %s", s.SSHKeyPath)
		check.Fix = "Generate one (ssh-keygen -t ed25519) or point the wizard at an existing key"
		return check
	}

	switch err := sshauth.CheckKey(keyPath, s.SSHKeyPassphrase); {
	case err == nil:
		check.Status = CheckPass
		if s.SSHKeyPassphrase != "" {
			check.Message = fmt.Sprintf("key usable: %s (passphrase cached)", keyPath)
		} else {
			check.Message = fmt.Sprintf("key usable: %s", keyPath)
		}
	case err == sshauth.ErrPassphraseRequired:
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("key is passphrase-protected: %s", keyPath)
		check.Fix = "The run will prompt for the passphrase, or store it with the wizard"
	case err == sshauth.ErrWrongPassphrase:
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("cached passphrase does not open %s", keyPath)
		check.Fix = "Re-enter it with the wizard"
	default:
		check.Status = CheckFail
		check.Message = fmt.Sprintf("key unreadable: %s", err)
		check.Fix = "Check the file is a private key and readable by this user"
	}
	return check
}

// checkRunLogWritable checks that the run log directory accepts writes.
func checkRunLogWritable(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Run Log Writable"}

	logPath, err := cfg.RunLogPath()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("could not determine log path: %s", err)
		return check
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("could not create log directory: %s", err)
		check.Fix = fmt.Sprintf("Create manually: mkdir -p %s", dir)
		return check
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("log directory not writable: %s", err)
		check.Fix = fmt.Sprintf("Check permissions on %s", dir)
		return check
	}
	os.Remove(testFile)

	check.Status = CheckPass
	check.Message = fmt.Sprintf("run log at %s", logPath)
	return check
}
