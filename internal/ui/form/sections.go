// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"fmt"
	"strings"

	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// FIELD MODEL
// =============================================================================

// fieldKind determines how a field renders and which keys act on it.
type fieldKind int

const (
	fieldText   fieldKind = iota // free text, enter to edit
	fieldSecret                  // like text but masked on screen
	fieldToggle                  // boolean, space flips it
	fieldChoice                  // cycles through fixed values
	fieldAction                  // enter triggers a command
	fieldInfo                    // read-only display line
)

// field is one row of the form. Toggle fields carry a live pointer into
// the settings record; text fields go through get/set closures so the
// editor can normalize input on the way in.
type field struct {
	id     string
	label  string
	kind   fieldKind
	get    func() string
	set    func(string)
	flag   *bool
	hint   string
	indent bool
}

// editable reports whether the cursor should stop on this field.
func (f field) editable() bool {
	return f.kind != fieldInfo
}

// =============================================================================
// SECTIONS
// =============================================================================

// section identifies one tab of the form.
type section int

const (
	sectionConnection section = iota
	sectionStack
	sectionHardening
	sectionAccess
	sectionMaintenance
	sectionReview
	sectionCount
)

var sectionTitles = [sectionCount]string{
	"Connection",
	"Server Stack",
	"Hardening",
	"Access & 2FA",
	"Maintenance",
	"Review",
}

// String returns the tab title.
func (s section) String() string {
	if s < 0 || s >= sectionCount {
		return "?"
	}
	return sectionTitles[s]
}

// fieldsFor builds the visible fields of a section against the current
// settings. Dependent fields appear only when their parent switch is on,
// so the list must be rebuilt after every mutation.
func fieldsFor(sec section, s *settings.Settings) []field {
	switch sec {
	case sectionConnection:
		return connectionFields(s)
	case sectionStack:
		return stackFields(s)
	case sectionHardening:
		return hardeningFields(s)
	case sectionAccess:
		return accessFields(s)
	case sectionMaintenance:
		return maintenanceFields(s)
	case sectionReview:
		return reviewFields(s)
	default:
		return nil
	}
}

func textField(id, label string, target *string, hint string) field {
	return field{
		id:    id,
		label: label,
		kind:  fieldText,
		get:   func() string { return *target },
		set:   func(v string) { *target = strings.TrimSpace(v) },
		hint:  hint,
	}
}

func secretField(id, label string, target *string, hint string) field {
	f := textField(id, label, target, hint)
	f.kind = fieldSecret
	// Passphrases may legitimately contain leading or trailing spaces.
	f.set = func(v string) { *target = v }
	return f
}

func toggleField(id, label string, target *bool, hint string) field {
	return field{
		id:    id,
		label: label,
		kind:  fieldToggle,
		flag:  target,
		hint:  hint,
	}
}

func connectionFields(s *settings.Settings) []field {
	fields := []field{
		textField("ip_address", "Server IP", &s.IPAddress, "IPv4 address of the target host"),
		textField("ssh_user", "SSH user", &s.SSHUser, "account used for the SSH connection"),
		secretField("connection_password", "SSH password", &s.ConnectionPassword, "only for hosts without key auth yet"),
		textField("ssh_key_path", "SSH key", &s.SSHKeyPath, "private key path, ~ expands"),
		secretField("ssh_key_passphrase", "Key passphrase", &s.SSHKeyPassphrase, "required when the key is encrypted"),
		textField("hostname", "Hostname", &s.Hostname, "optional, sets the server hostname"),
		toggleField("create_user", "Create admin user", &s.CreateUser, "adds a sudo user alongside root"),
	}
	if s.CreateUser {
		user := textField("added_user", "Username", &s.AddedUser, "")
		user.indent = true
		pass := secretField("user_password", "User password", &s.UserPassword, "")
		pass.indent = true
		fields = append(fields, user, pass)
	}
	return fields
}

func stackFields(s *settings.Settings) []field {
	fields := []field{
		toggleField("fail2ban", "Fail2ban", &s.Fail2ban, "bans brute-force SSH attempts"),
		toggleField("docker", "Docker", &s.Docker, ""),
		toggleField("swap", "Swap file", &s.Swap, ""),
		toggleField("lemp", "LEMP stack", &s.LEMP, "Nginx, MariaDB, PHP"),
	}
	if s.LEMP {
		wp := toggleField("wordpress", "WordPress", &s.WordPress, "")
		wp.indent = true
		cb := toggleField("certbot", "Certbot TLS", &s.Certbot, "Let's Encrypt certificates")
		cb.indent = true
		fields = append(fields, wp, cb)
	}
	fields = append(fields, toggleField("dev_tools", "CLI tool set", &s.DevTools, "modern command line tools"))
	if s.DevTools {
		for _, opt := range s.ToolOptions() {
			f := toggleField("tool_"+strings.ReplaceAll(opt.Label, " ", "_"), opt.Label, opt.Flag, "")
			f.indent = true
			fields = append(fields, f)
		}
	}
	return fields
}

func hardeningFields(s *settings.Settings) []field {
	return []field{
		toggleField("system_hardening", "Kernel hardening", &s.SystemHardening, "sysctl and kernel lockdown"),
		toggleField("apparmor", "AppArmor", &s.AppArmor, ""),
		toggleField("rootkit_detection", "Rootkit detection", &s.RootkitDetection, "rkhunter"),
		toggleField("file_integrity", "File integrity", &s.FileIntegrity, "AIDE"),
		toggleField("audit_logging", "Audit logging", &s.AuditLogging, "auditd"),
		toggleField("log_monitoring", "Log monitoring", &s.LogMonitoring, "logwatch"),
		toggleField("advanced_protection", "Advanced bundle", &s.AdvancedProtection, ""),
		toggleField("secure_shm", "Secure shared memory", &s.SecureSHM, ""),
		toggleField("lynis", "Lynis audit", &s.Lynis, ""),
		toggleField("disable_ipv6", "Disable IPv6", &s.DisableIPv6, ""),
		toggleField("suricata", "Suricata IDS", &s.Suricata, ""),
		toggleField("usb_restrictions", "USB restrictions", &s.USBRestrictions, ""),
	}
}

func accessFields(s *settings.Settings) []field {
	return []field{
		toggleField("ssh_2fa_totp", "SSH 2FA: TOTP", &s.SSH2FATotp, "authenticator app codes"),
		toggleField("ssh_2fa_fido2", "SSH 2FA: FIDO2", &s.SSH2FAFido2, "hardware security keys"),
		toggleField("ssh_2fa_duo", "SSH 2FA: Duo", &s.SSH2FADuo, "push approval"),
		toggleField("backups", "Automated backups", &s.Backups, ""),
	}
}

func maintenanceFields(s *settings.Settings) []field {
	fields := []field{
		toggleField("cron_jobs", "Maintenance cron", &s.CronJobs, "updates and cleanup jobs"),
		toggleField("periodic_reboot", "Periodic reboots", &s.PeriodicReboot, ""),
	}
	if s.PeriodicReboot {
		choice := field{
			id:    "reboot_hour",
			label: "Schedule",
			kind:  fieldChoice,
			get:   func() string { return settings.RebootScheduleLabel(s.RebootHour) },
			set: func(string) {
				s.RebootHour = nextRebootChoice(s.RebootHour)
			},
			indent: true,
			hint:   "space cycles through the slots",
		}
		fields = append(fields, choice)
	}
	return fields
}

// nextRebootChoice advances to the following schedule slot, wrapping at
// the end. Unknown values restart from the first slot.
func nextRebootChoice(current string) string {
	choices := settings.RebootScheduleChoices()
	for i, c := range choices {
		if c == current {
			return choices[(i+1)%len(choices)]
		}
	}
	return choices[0]
}

func reviewFields(s *settings.Settings) []field {
	enabled, total := s.ToolCount()
	infos := []field{
		infoField("review_target", "Target", s.Target()),
		infoField("review_key", "SSH key", s.SSHKeyPath),
		infoField("review_tools", "CLI tools", fmt.Sprintf("%d of %d selected", enabled, total)),
		infoField("review_2fa", "Two-factor", onOff(s.TwoFactorEnabled())),
		infoField("review_backups", "Backups", onOff(s.Backups)),
	}
	return append(infos,
		field{id: "test", label: "Test connection", kind: fieldAction, hint: "probe SSH before committing"},
		field{id: "run", label: "Start provisioning", kind: fieldAction, hint: "launches ansible-playbook"},
	)
}

func infoField(id, label, value string) field {
	return field{
		id:    id,
		label: label,
		kind:  fieldInfo,
		get:   func() string { return value },
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
