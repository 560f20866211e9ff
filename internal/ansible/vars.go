// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ansible

import (
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// EXTRA VARIABLES
// =============================================================================

// Var is one extra variable for the playbook, passed as -e Key=Value.
type Var struct {
	Key   string
	Value string
}

// secretVarKeys lists the variable names whose values must never reach a
// preview, export, or log line.
var secretVarKeys = map[string]bool{
	"connection_password": true,
	"user_password":       true,
}

// Secret reports whether the variable's value is a credential.
func (v Var) Secret() bool { return secretVarKeys[v.Key] }

// Redacted returns Key=Value with credential values masked.
func (v Var) Redacted() string {
	if v.Secret() {
		return v.Key + "=" + RedactedValue
	}
	return v.Key + "=" + v.Value
}

// RedactedValue replaces credential values in previews and exports.
const RedactedValue = "****"

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// BuildVars flattens the form state into the playbook's extra variables.
//
// The variable names and the yes/no encoding are the playbook's contract;
// renaming one silently turns its feature off. The order is fixed:
// connection details first, then the always-present prompt_* toggles,
// then the enable_* flags that are only emitted when set. A stable order
// keeps previews, exports, and run logs diffable between runs.
func BuildVars(s *settings.Settings) []Var {
	vars := make([]Var, 0, 64)
	add := func(key, value string) {
		vars = append(vars, Var{Key: key, Value: value})
	}
	addBool := func(key string, v bool) {
		add(key, yesNo(v))
	}
	addIf := func(key string, v bool) {
		if v {
			add(key, "yes")
		}
	}

	add("target_ip", s.IPAddress)
	add("target_user", s.SSHUser)
	if s.ConnectionPassword != "" {
		add("connection_password", s.ConnectionPassword)
	}
	add("ssh_key_path", util.ExpandHome(s.SSHKeyPath))
	if s.Hostname != "" {
		add("target_hostname", s.Hostname)
	}
	addBool("prompt_create_user", s.CreateUser)
	add("added_user", s.AddedUser)
	add("user_password", s.UserPassword)

	addBool("prompt_install_docker", s.Docker)
	addBool("prompt_install_lemp", s.LEMP)
	addBool("prompt_install_wordpress", s.WordPress)
	addBool("prompt_install_certbot", s.Certbot)
	addBool("prompt_install_dev_tools", s.DevTools)
	addBool("prompt_install_neovim", s.InstallNeovim)
	addBool("prompt_install_zsh", s.InstallZsh)
	addBool("prompt_install_tmux", s.InstallTmux)
	addBool("prompt_install_nodejs", s.InstallNodejs)
	addBool("prompt_install_claude_code", s.InstallClaudeCode)
	addBool("prompt_install_gemini", s.InstallGemini)
	addBool("prompt_install_kiro", s.InstallKiro)
	addBool("prompt_install_github_cli", s.InstallGithubCLI)
	addBool("prompt_install_btop", s.InstallBtop)
	addBool("prompt_install_ripgrep", s.InstallRipgrep)
	addBool("prompt_install_fd", s.InstallFd)
	addBool("prompt_install_duf", s.InstallDuf)
	addBool("prompt_install_ncdu", s.InstallNcdu)
	addBool("prompt_install_lnav", s.InstallLnav)
	addBool("prompt_install_tldr", s.InstallTldr)
	addBool("prompt_install_lazygit", s.InstallLazygit)
	addBool("prompt_install_uv", s.InstallUv)
	addBool("prompt_install_fzf", s.InstallFzf)
	addBool("prompt_install_bat", s.InstallBat)
	addBool("prompt_install_eza", s.InstallEza)
	addBool("prompt_install_zoxide", s.InstallZoxide)
	addBool("prompt_install_jq", s.InstallJq)
	addBool("prompt_install_htop", s.InstallHtop)
	addBool("prompt_install_gping", s.InstallGping)
	addBool("prompt_install_nmap", s.InstallNmap)
	addBool("prompt_install_autossh", s.InstallAutossh)
	addBool("prompt_install_starship", s.InstallStarship)
	addBool("prompt_install_direnv", s.InstallDirenv)
	addBool("prompt_install_fish", s.InstallFish)
	addBool("prompt_install_micro", s.InstallMicro)
	addBool("prompt_install_ranger", s.InstallRanger)
	addBool("prompt_enable_fail2ban", s.Fail2ban)
	addBool("prompt_enable_swap", s.Swap)
	addBool("prompt_enable_cron_jobs", s.CronJobs)
	addBool("prompt_enable_periodic_reboot", s.PeriodicReboot)
	add("prompt_reboot_hour", s.RebootHour)

	addIf("enable_kernel_hardening", s.SystemHardening)
	addIf("enable_apparmor", s.AppArmor)
	addIf("enable_rkhunter", s.RootkitDetection)
	addIf("enable_aide", s.FileIntegrity)
	addIf("enable_auditd", s.AuditLogging)
	addIf("enable_logwatch", s.LogMonitoring)

	// Any 2FA variant raises the umbrella flag; FIDO2 and Duo add their
	// own refinements on top of it.
	if s.TwoFactorEnabled() {
		add("enable_ssh_2fa", "yes")
		addIf("enable_ssh_2fa_fido2", s.SSH2FAFido2)
		addIf("enable_ssh_2fa_duo", s.SSH2FADuo)
	}

	addIf("enable_backups", s.Backups)
	addIf("enable_usb_restrictions", s.USBRestrictions)
	addIf("disable_ipv6", s.DisableIPv6)
	addIf("enable_suricata", s.Suricata)

	return vars
}
