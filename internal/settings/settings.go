// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SETTINGS RECORD
// =============================================================================

// Settings is the complete provisioning form state. The JSON tags are the
// cache-file schema; older front-ends read and wrote the same names.
type Settings struct {
	// Connection
	IPAddress          string `json:"ip_address"`
	SSHUser            string `json:"ssh_user"`
	ConnectionPassword string `json:"connection_password"`
	SSHKeyPath         string `json:"ssh_key_path"`
	SSHKeyPassphrase   string `json:"ssh_key_passphrase"`
	Hostname           string `json:"hostname"`

	// User creation
	AddedUser    string `json:"added_user"`
	UserPassword string `json:"user_password"`
	CreateUser   bool   `json:"create_user"`

	// Server stack
	Fail2ban  bool `json:"fail2ban"`
	Docker    bool `json:"docker"`
	Swap      bool `json:"swap"`
	LEMP      bool `json:"lemp"`
	DevTools  bool `json:"devtools"`
	WordPress bool `json:"wordpress"`
	Certbot   bool `json:"certbot"`

	// Hardening
	SystemHardening    bool `json:"system_hardening"`
	AppArmor           bool `json:"apparmor"`
	RootkitDetection   bool `json:"rootkit_detection"`
	FileIntegrity      bool `json:"file_integrity"`
	AuditLogging       bool `json:"audit_logging"`
	LogMonitoring      bool `json:"log_monitoring"`
	AdvancedProtection bool `json:"advanced_protection"` // not yet a playbook variable

	// SSH two-factor
	SSH2FATotp  bool `json:"ssh_2fa_totp"`
	SSH2FAFido2 bool `json:"ssh_2fa_fido2"`
	SSH2FADuo   bool `json:"ssh_2fa_duo"`

	// Extras
	Backups         bool `json:"backups"`
	USBRestrictions bool `json:"usb_restrictions"`

	// Dev tools (only consulted when DevTools is on)
	InstallNeovim     bool `json:"install_neovim"`
	InstallNodejs     bool `json:"install_nodejs"`
	InstallClaudeCode bool `json:"install_claude_code"`
	InstallGemini     bool `json:"install_gemini"`
	InstallKiro       bool `json:"install_kiro"`
	InstallGithubCLI  bool `json:"install_github_cli"`
	InstallBtop       bool `json:"install_btop"`
	InstallTldr       bool `json:"install_tldr"`
	InstallLazygit    bool `json:"install_lazygit"`
	InstallTmux       bool `json:"install_tmux"`
	InstallZsh        bool `json:"install_zsh"`
	InstallRipgrep    bool `json:"install_ripgrep"`
	InstallFd         bool `json:"install_fd"`
	InstallDuf        bool `json:"install_duf"`
	InstallNcdu       bool `json:"install_ncdu"`
	InstallLnav       bool `json:"install_lnav"`
	InstallUv         bool `json:"install_uv"`
	InstallFzf        bool `json:"install_fzf"`
	InstallBat        bool `json:"install_bat"`
	InstallEza        bool `json:"install_eza"`
	InstallZoxide     bool `json:"install_zoxide"`
	InstallJq         bool `json:"install_jq"`
	InstallHtop       bool `json:"install_htop"`
	InstallGping      bool `json:"install_gping"`
	InstallNmap       bool `json:"install_nmap"`
	InstallAutossh    bool `json:"install_autossh"`
	InstallStarship   bool `json:"install_starship"`
	InstallDirenv     bool `json:"install_direnv"`
	InstallFish       bool `json:"install_fish"`
	InstallMicro      bool `json:"install_micro"`
	InstallRanger     bool `json:"install_ranger"`

	// Persisted but not yet wired to playbook variables. The playbook has
	// no corresponding prompts; the toggles survive in the cache so they
	// light up when it grows them.
	SecureSHM bool `json:"secure_shm"`
	Lynis     bool `json:"lynis"`

	// Network hardening
	DisableIPv6 bool `json:"disable_ipv6"`
	Suricata    bool `json:"suricata"`

	// Maintenance
	CronJobs       bool   `json:"cron_jobs"`
	PeriodicReboot bool   `json:"periodic_reboot"`
	RebootHour     string `json:"reboot_hour"`
}

// Default returns the form state a fresh install starts from.
func Default() *Settings {
	keyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		keyPath = filepath.Join(home, ".ssh", "id_rsa")
	}

	return &Settings{
		IPAddress:          "",
		SSHUser:            "root",
		ConnectionPassword: "",
		SSHKeyPath:         keyPath,
		SSHKeyPassphrase:   "",
		Hostname:           "",
		AddedUser:          "organic",
		UserPassword:       "",
		CreateUser:         true,

		Fail2ban:  true,
		Docker:    true,
		Swap:      true,
		LEMP:      false,
		DevTools:  true,
		WordPress: false,
		Certbot:   false,

		InstallNeovim:     true,
		InstallNodejs:     true,
		InstallClaudeCode: true,
		InstallGithubCLI:  true,
		InstallBtop:       true,
		InstallTldr:       true,
		InstallLazygit:    true,
		InstallTmux:       true,
		InstallZsh:        true,
		InstallRipgrep:    true,
		InstallFd:         true,
		InstallDuf:        true,
		InstallNcdu:       true,
		InstallLnav:       true,
		InstallFzf:        true,
		InstallBat:        true,
		InstallEza:        true,
		InstallZoxide:     true,
		InstallJq:         true,
		InstallHtop:       true,
		InstallGping:      true,
		InstallNmap:       true,
		InstallAutossh:    true,
		InstallStarship:   true,
		InstallDirenv:     true,
		InstallMicro:      true,
		InstallRanger:     true,

		CronJobs:       true,
		PeriodicReboot: false,
		RebootHour:     "3",
	}
}

// Normalize canonicalizes the free-text fields in place: NFKC folding plus
// whitespace trimming. Unicode homoglyphs in a hostname or username would
// otherwise ride straight into the ansible command line. Secrets are left
// untouched; normalizing a password would change it.
func (s *Settings) Normalize() {
	s.IPAddress = normText(s.IPAddress)
	s.SSHUser = normText(s.SSHUser)
	s.Hostname = normText(s.Hostname)
	s.AddedUser = normText(s.AddedUser)
	s.RebootHour = normText(s.RebootHour)
	// Paths get a trim only; NFKC could alias a real file name.
	s.SSHKeyPath = strings.TrimSpace(s.SSHKeyPath)
}

func normText(v string) string {
	return strings.TrimSpace(norm.NFKC.String(v))
}

// TwoFactorEnabled reports whether any SSH 2FA variant is selected.
func (s *Settings) TwoFactorEnabled() bool {
	return s.SSH2FATotp || s.SSH2FAFido2 || s.SSH2FADuo
}

// Target returns the user@host form used in banners and log lines.
func (s *Settings) Target() string {
	return s.SSHUser + "@" + s.IPAddress
}
