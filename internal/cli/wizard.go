// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// wizard.go - Interactive settings wizard for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: wizard
// Short:   Collect provisioning settings at the prompt, no TUI
// Aliases: prompt, interactive
//
// Examples:
//   rigup wizard               Walk through every section
//
// The wizard walks through:
//   1. Connection (target, SSH user, key, optional hostname)
//   2. Created user
//   3. Server stack (docker, LEMP, WordPress, certbot, ...)
//   4. CLI tool selection
//   5. Hardening
//   6. SSH two-factor and backups
//   7. Maintenance (cron jobs, reboot schedule)
//
// Answers land in the same settings cache the TUI uses, so the two
// front-ends can be mixed freely. Enter keeps the shown default, which
// is the cached value from the previous session.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// wizardEditor wraps liner with history support so IPs, hostnames and
// key paths from earlier sessions are an arrow-key away.
// USABILITY: Supports arrow keys for history navigation and line editing.
type wizardEditor struct {
	line        *liner.State
	historyFile string
}

func newWizardEditor() *wizardEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "wizard_history")

	ed := &wizardEditor{line: line, historyFile: historyFile}
	ed.loadHistory()
	return ed
}

func (ed *wizardEditor) loadHistory() {
	if f, err := os.Open(ed.historyFile); err == nil {
		ed.line.ReadHistory(f)
		f.Close()
	}
}

// prompt reads one line with a default. Secrets never go through here;
// they would end up in the history file.
func (ed *wizardEditor) prompt(label, defaultVal string) (string, error) {
	display := label
	if defaultVal != "" {
		display = fmt.Sprintf("%s [%s]", label, defaultVal)
	}

	input, err := ed.line.Prompt(display + ": ")
	if err != nil {
		return "", err
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal, nil
	}
	ed.line.AppendHistory(input)
	return input, nil
}

// yesNo asks a toggle question through the editor.
func (ed *wizardEditor) yesNo(label string, defaultYes bool) (bool, error) {
	suffix := "[Y/n]"
	if !defaultYes {
		suffix = "[y/N]"
	}

	input, err := ed.line.Prompt(fmt.Sprintf("%s %s: ", label, suffix))
	if err != nil {
		return false, err
	}

	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return defaultYes, nil
	}
	return input == "y" || input == "yes", nil
}

// close saves history with owner-only permissions and restores the
// terminal.
func (ed *wizardEditor) close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(ed.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			ed.line.WriteHistory(f)
			f.Close()
		}
	}
	ed.line.Close()
}

// =============================================================================
// WIZARD COMMAND HANDLER
// =============================================================================

// HandleWizard handles the "wizard" command.
func HandleWizard(args Args) error {
	if err := RequiresTTY("run the settings wizard"); err != nil {
		return err
	}

	// Cached values become the defaults, so re-running the wizard is an
	// edit, not a restart.
	s, err := settings.Load()
	if err != nil {
		return WrapError(err, "loading cached settings")
	}

	ed := newWizardEditor()
	defer ed.close()

	fmt.Println()
	fmt.Println(TitleStyle.Render("rigup Settings Wizard"))
	fmt.Println(strings.Repeat("=", 21))
	fmt.Println()

	if err := wizardConnection(ed, s); err != nil {
		return wizardAborted(err)
	}
	if err := wizardCreatedUser(ed, s); err != nil {
		return wizardAborted(err)
	}
	if err := wizardServerStack(ed, s); err != nil {
		return wizardAborted(err)
	}
	if err := wizardTools(ed, s); err != nil {
		return wizardAborted(err)
	}
	if err := wizardHardening(ed, s); err != nil {
		return wizardAborted(err)
	}
	if err := wizardAccess(ed, s); err != nil {
		return wizardAborted(err)
	}
	if err := wizardMaintenance(ed, s); err != nil {
		return wizardAborted(err)
	}

	// Review and save.
	s.Normalize()
	problems := s.Validate()
	for _, w := range problems.Warnings() {
		fmt.Printf("%s %s\n", WarningStyle.Render("[WARN]"), w.Message)
	}
	if errs := problems.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("%s %s\n", ErrorStyle.Render("[ERROR]"), e.Message)
		}
		return fmt.Errorf("settings were not saved; run the wizard again")
	}

	if err := s.Save(); err != nil {
		return WrapError(err, "saving settings")
	}

	cachePath, _ := settings.CachePath()
	fmt.Println()
	fmt.Println(SuccessStyle.Render("Settings saved"))
	fmt.Println(strings.Repeat("=", 14))
	fmt.Printf("  %s%s\n", RenderLabel("Target:"), s.Target())
	fmt.Printf("  %s%s\n", RenderLabel("Cache:"), cachePath)
	fmt.Println()
	fmt.Println("Provision with 'rigup run', or open the TUI to review.")
	fmt.Println()

	return nil
}

// wizardAborted maps Ctrl+C in a prompt to a quiet exit.
func wizardAborted(err error) error {
	if err == liner.ErrPromptAborted {
		ShowCancellationMessage()
		return nil
	}
	return err
}

// =============================================================================
// SECTIONS
// =============================================================================

func wizardConnection(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 1: Connection")
	fmt.Println(strings.Repeat("-", 18))

	for {
		ip, err := ed.prompt("Target IP address", s.IPAddress)
		if err != nil {
			return err
		}
		if settings.ValidIP(strings.TrimSpace(ip)) {
			s.IPAddress = ip
			break
		}
		fmt.Println(ErrorStyle.Render("  Not a valid IPv4 address, e.g. 203.0.113.10"))
	}

	user, err := ed.prompt("SSH user", s.SSHUser)
	if err != nil {
		return err
	}
	s.SSHUser = user

	keyPath, err := ed.prompt("SSH private key", s.SSHKeyPath)
	if err != nil {
		return err
	}
	s.SSHKeyPath = keyPath

	// An early key check turns a typo into feedback now instead of an
	// unreachable target later.
	if resolved, err := sshauth.ResolveKeyPath(keyPath); err != nil {
		fmt.Printf("%s %v\n", WarningStyle.Render("[WARN]"), err)
	} else if err := sshauth.CheckKey(resolved, s.SSHKeyPassphrase); err == sshauth.ErrPassphraseRequired {
		pass, perr := promptPassphrase("Key passphrase (stored in the cache; Enter to skip)")
		if perr != nil {
			return perr
		}
		if pass != "" {
			if err := sshauth.CheckKey(resolved, pass); err != nil {
				fmt.Printf("%s %v\n", WarningStyle.Render("[WARN]"), err)
			}
		}
		s.SSHKeyPassphrase = pass
	}

	pw, err := promptPassphrase("SSH password (key auth fallback; Enter to skip)")
	if err != nil {
		return err
	}
	if pw != "" {
		s.ConnectionPassword = pw
	}

	hostname, err := ed.prompt("New hostname (Enter to keep current)", s.Hostname)
	if err != nil {
		return err
	}
	s.Hostname = hostname

	fmt.Println()
	return nil
}

func wizardCreatedUser(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 2: Created User")
	fmt.Println(strings.Repeat("-", 20))

	create, err := ed.yesNo("Create a non-root user?", s.CreateUser)
	if err != nil {
		return err
	}
	s.CreateUser = create

	if create {
		name, err := ed.prompt("Username", s.AddedUser)
		if err != nil {
			return err
		}
		s.AddedUser = name

		pw, err := promptPassphrase("Password for " + name + " (Enter to skip)")
		if err != nil {
			return err
		}
		if pw != "" {
			s.UserPassword = pw
		}
	}

	fmt.Println()
	return nil
}

func wizardServerStack(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 3: Server Stack")
	fmt.Println(strings.Repeat("-", 20))

	toggles := []struct {
		label string
		value *bool
	}{
		{"Docker", &s.Docker},
		{"Swap file", &s.Swap},
		{"LEMP stack (nginx, MariaDB, PHP)", &s.LEMP},
		{"Fail2ban", &s.Fail2ban},
		{"Developer tools", &s.DevTools},
	}
	for _, t := range toggles {
		v, err := ed.yesNo(t.label, *t.value)
		if err != nil {
			return err
		}
		*t.value = v
	}

	// WordPress and certbot ride on the LEMP stack.
	if s.LEMP {
		wp, err := ed.yesNo("WordPress", s.WordPress)
		if err != nil {
			return err
		}
		s.WordPress = wp

		cb, err := ed.yesNo("Certbot (Let's Encrypt TLS)", s.Certbot)
		if err != nil {
			return err
		}
		s.Certbot = cb
	} else {
		s.WordPress = false
	}

	fmt.Println()
	return nil
}

func wizardTools(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 4: CLI Tools")
	fmt.Println(strings.Repeat("-", 17))

	defaults := settings.Default()
	keep, err := ed.yesNo("Install the recommended CLI tool set?", true)
	if err != nil {
		return err
	}
	if keep {
		settings.CopyToolSelection(defaults, s)
		fmt.Println(DimStyle.Render("  Keeping the recommended selection."))
		fmt.Println()
		return nil
	}

	custom, err := ed.yesNo("Pick tools one by one? (no skips them all)", false)
	if err != nil {
		return err
	}
	if !custom {
		none := &settings.Settings{}
		settings.CopyToolSelection(none, s)
		fmt.Println()
		return nil
	}

	for _, t := range s.ToolOptions() {
		v, err := ed.yesNo("  "+t.Label, *t.Flag)
		if err != nil {
			return err
		}
		*t.Flag = v
	}

	fmt.Println()
	return nil
}

func wizardHardening(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 5: Hardening")
	fmt.Println(strings.Repeat("-", 17))

	toggles := []struct {
		label string
		value *bool
	}{
		{"Kernel and sysctl hardening", &s.SystemHardening},
		{"AppArmor profiles", &s.AppArmor},
		{"Rootkit detection (rkhunter)", &s.RootkitDetection},
		{"File integrity monitoring (AIDE)", &s.FileIntegrity},
		{"Audit logging (auditd)", &s.AuditLogging},
		{"Log monitoring (logwatch)", &s.LogMonitoring},
		{"Advanced protection bundle", &s.AdvancedProtection},
		{"Secure shared memory", &s.SecureSHM},
		{"Lynis audit", &s.Lynis},
		{"Disable IPv6", &s.DisableIPv6},
		{"Suricata IDS", &s.Suricata},
		{"USB restrictions", &s.USBRestrictions},
	}
	for _, t := range toggles {
		v, err := ed.yesNo(t.label, *t.value)
		if err != nil {
			return err
		}
		*t.value = v
	}

	fmt.Println()
	return nil
}

func wizardAccess(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 6: SSH Access")
	fmt.Println(strings.Repeat("-", 18))

	totp, err := ed.yesNo("SSH 2FA with TOTP codes", s.SSH2FATotp)
	if err != nil {
		return err
	}
	s.SSH2FATotp = totp

	fido, err := ed.yesNo("SSH 2FA with FIDO2 keys", s.SSH2FAFido2)
	if err != nil {
		return err
	}
	s.SSH2FAFido2 = fido

	duo, err := ed.yesNo("SSH 2FA with Duo push", s.SSH2FADuo)
	if err != nil {
		return err
	}
	s.SSH2FADuo = duo

	backups, err := ed.yesNo("Automated backups", s.Backups)
	if err != nil {
		return err
	}
	s.Backups = backups

	fmt.Println()
	return nil
}

func wizardMaintenance(ed *wizardEditor, s *settings.Settings) error {
	fmt.Println("Step 7: Maintenance")
	fmt.Println(strings.Repeat("-", 19))

	cron, err := ed.yesNo("Maintenance cron jobs", s.CronJobs)
	if err != nil {
		return err
	}
	s.CronJobs = cron

	reboot, err := ed.yesNo("Periodic reboots", s.PeriodicReboot)
	if err != nil {
		return err
	}
	s.PeriodicReboot = reboot

	if reboot {
		choices := settings.RebootScheduleChoices()
		fmt.Println("  Schedule:")
		def := 0
		for i, c := range choices {
			fmt.Printf("    [%d] %s\n", i+1, settings.RebootScheduleLabel(c))
			if c == s.RebootHour {
				def = i
			}
		}

		input, err := ed.prompt("  Pick a schedule", strconv.Itoa(def+1))
		if err != nil {
			return err
		}
		if idx, err := strconv.Atoi(strings.TrimSpace(input)); err == nil && idx >= 1 && idx <= len(choices) {
			s.RebootHour = choices[idx-1]
		}
	}

	fmt.Println()
	return nil
}

