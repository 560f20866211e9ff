// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cache_cmd.go - Settings cache CLI commands for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: cache [subcommand]
// Short:   Inspect or reset the cached provisioning settings
// Aliases: settings
//
// Subcommands:
//   show (default)      Display the cached settings, secrets masked
//   clear               Reset the cache to defaults (interactive)
//   path                Print the cache file location
//
// Examples:
//   rigup cache                 Show cached settings
//   rigup cache --json          Summary in JSON format
//   rigup cache clear           Reset to defaults (asks first)
//   rigup cache clear --yes     Reset without asking
//   rigup cache path            Print the cache path
//
// Cache Location:
//   ~/.ansible_provisioning_cache.json
//
// Secret values (passwords, passphrases) are never printed, only
// whether they are set.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// CACHE COMMAND HANDLER
// =============================================================================

// HandleCache handles the "cache" command with its subcommands.
func HandleCache(args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return showSettingsJSON()
		}
		return showSettings()
	case "clear":
		return clearSettings(args)
	case "path":
		path, err := settings.CachePath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown cache subcommand: %s", args.Subcommand)
	}
}

// =============================================================================
// SETTINGS DISPLAY
// =============================================================================

// secretState renders a password field without its value.
func secretState(v string) string {
	if v == "" {
		return DimStyle.Render("(not set)")
	}
	return "(set)"
}

// showSettings displays the cached settings grouped the way the TUI
// groups them.
func showSettings() error {
	s, err := settings.Load()
	if err != nil {
		return WrapError(err, "loading cached settings")
	}
	s.Normalize()

	path, _ := settings.CachePath()

	fmt.Println()
	fmt.Println("rigup Cached Settings")
	fmt.Println(strings.Repeat("=", 21))
	fmt.Println()

	fmt.Println("Connection")
	fmt.Printf("  Target:      %s\n", s.Target())
	fmt.Printf("  SSH key:     %s\n", s.SSHKeyPath)
	fmt.Printf("  Passphrase:  %s\n", secretState(s.SSHKeyPassphrase))
	fmt.Printf("  Password:    %s\n", secretState(s.ConnectionPassword))
	if s.Hostname != "" {
		fmt.Printf("  Hostname:    %s\n", s.Hostname)
	} else {
		fmt.Printf("  Hostname:    %s\n", DimStyle.Render("(keep current)"))
	}
	fmt.Println()

	fmt.Println("Created User")
	fmt.Printf("  Create:      %s\n", OnOff(s.CreateUser))
	if s.CreateUser {
		fmt.Printf("  Username:    %s\n", s.AddedUser)
		fmt.Printf("  Password:    %s\n", secretState(s.UserPassword))
	}
	fmt.Println()

	fmt.Println("Server Stack")
	fmt.Printf("  Docker:      %s\n", OnOff(s.Docker))
	fmt.Printf("  Swap:        %s\n", OnOff(s.Swap))
	fmt.Printf("  LEMP:        %s\n", OnOff(s.LEMP))
	fmt.Printf("  WordPress:   %s\n", OnOff(s.WordPress))
	fmt.Printf("  Certbot:     %s\n", OnOff(s.Certbot))
	fmt.Printf("  Dev tools:   %s\n", OnOff(s.DevTools))
	fmt.Printf("  Fail2ban:    %s\n", OnOff(s.Fail2ban))
	fmt.Println()

	fmt.Println("CLI Tools")
	enabled, total := s.ToolCount()
	fmt.Printf("  Selected:    %d of %d\n", enabled, total)
	fmt.Println()

	fmt.Println("Hardening")
	fmt.Printf("  System:      %s\n", OnOff(s.SystemHardening))
	fmt.Printf("  AppArmor:    %s\n", OnOff(s.AppArmor))
	fmt.Printf("  Rootkit:     %s\n", OnOff(s.RootkitDetection))
	fmt.Printf("  Integrity:   %s\n", OnOff(s.FileIntegrity))
	fmt.Printf("  Audit log:   %s\n", OnOff(s.AuditLogging))
	fmt.Printf("  Log watch:   %s\n", OnOff(s.LogMonitoring))
	fmt.Printf("  Advanced:    %s\n", OnOff(s.AdvancedProtection))
	fmt.Printf("  Secure SHM:  %s\n", OnOff(s.SecureSHM))
	fmt.Printf("  Lynis:       %s\n", OnOff(s.Lynis))
	fmt.Printf("  No IPv6:     %s\n", OnOff(s.DisableIPv6))
	fmt.Printf("  Suricata:    %s\n", OnOff(s.Suricata))
	fmt.Printf("  USB locks:   %s\n", OnOff(s.USBRestrictions))
	fmt.Println()

	fmt.Println("SSH Access")
	fmt.Printf("  2FA TOTP:    %s\n", OnOff(s.SSH2FATotp))
	fmt.Printf("  2FA FIDO2:   %s\n", OnOff(s.SSH2FAFido2))
	fmt.Printf("  2FA Duo:     %s\n", OnOff(s.SSH2FADuo))
	fmt.Printf("  Backups:     %s\n", OnOff(s.Backups))
	fmt.Println()

	fmt.Println("Maintenance")
	fmt.Printf("  Cron jobs:   %s\n", OnOff(s.CronJobs))
	fmt.Printf("  Reboots:     %s\n", OnOff(s.PeriodicReboot))
	if s.PeriodicReboot {
		fmt.Printf("  Schedule:    %s\n", settings.RebootScheduleLabel(s.RebootHour))
	}
	fmt.Println()

	fmt.Printf("Cache Location: %s\n", path)
	fmt.Println()

	return nil
}

// showSettingsJSON emits a settings summary for scripts. A round-trip
// document with credentials is what `vars --with-secrets` is for; this
// one stays paste-safe.
func showSettingsJSON() error {
	s, err := settings.Load()
	if err != nil {
		return err
	}
	s.Normalize()

	path, _ := settings.CachePath()
	enabled, total := s.ToolCount()

	out := struct {
		Path            string `json:"path"`
		Target          string `json:"target"`
		Hostname        string `json:"hostname,omitempty"`
		PasswordSet     bool   `json:"password_set"`
		PassphraseSet   bool   `json:"passphrase_set"`
		CreateUser      bool   `json:"create_user"`
		AddedUser       string `json:"added_user,omitempty"`
		ToolsEnabled    int    `json:"tools_enabled"`
		ToolsTotal      int    `json:"tools_total"`
		TwoFactor       bool   `json:"two_factor"`
		PeriodicReboot  bool   `json:"periodic_reboot"`
		RebootSchedule  string `json:"reboot_schedule,omitempty"`
	}{
		Path:           path,
		Target:         s.Target(),
		Hostname:       s.Hostname,
		PasswordSet:    s.ConnectionPassword != "",
		PassphraseSet:  s.SSHKeyPassphrase != "",
		CreateUser:     s.CreateUser,
		AddedUser:      s.AddedUser,
		ToolsEnabled:   enabled,
		ToolsTotal:     total,
		TwoFactor:      s.TwoFactorEnabled(),
		PeriodicReboot: s.PeriodicReboot,
	}
	if s.PeriodicReboot {
		out.RebootSchedule = settings.RebootScheduleLabel(s.RebootHour)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// =============================================================================
// CACHE CLEAR
// =============================================================================

// clearSettings resets the cache to defaults after confirmation.
func clearSettings(args Args) error {
	path, err := settings.CachePath()
	if err != nil {
		return err
	}

	ok, err := RequireConfirmation(args.Yes, fmt.Sprintf("reset %s to defaults", path))
	if err != nil {
		return err
	}
	if !ok {
		ShowCancellationMessage()
		return nil
	}

	if err := settings.Default().Save(); err != nil {
		return WrapError(err, "resetting settings cache")
	}

	fmt.Printf("%s Settings reset to defaults.\n", SuccessStyle.Render("[OK]"))
	return nil
}
