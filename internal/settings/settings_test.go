// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// CACHE ROUND-TRIP TESTS
// =============================================================================

func TestCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	s := Default()
	s.IPAddress = "203.0.113.10"
	s.SSHUser = "deploy"
	s.ConnectionPassword = "hunter2"
	s.Hostname = "web-01"
	s.LEMP = true
	s.WordPress = true
	s.SSH2FATotp = true
	s.PeriodicReboot = true
	s.RebootHour = "4"

	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if *loaded != *s {
		t.Errorf("Round trip mismatch:\n got: %+v\nwant: %+v", loaded, s)
	}
}

func TestCache_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.json")

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom on missing file should not error, got: %v", err)
	}

	if s.SSHUser != "root" {
		t.Errorf("Expected default ssh user 'root', got %q", s.SSHUser)
	}
	if !s.CreateUser {
		t.Error("Default should enable user creation")
	}
	if s.AddedUser != "organic" {
		t.Errorf("Expected default added user 'organic', got %q", s.AddedUser)
	}
	if s.RebootHour != "3" {
		t.Errorf("Expected default reboot hour '3', got %q", s.RebootHour)
	}
}

func TestCache_CorruptFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom should report corrupt JSON instead of silently resetting the form")
	}
}

func TestCache_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	// A cache written by an older front-end that predates some fields.
	partial := `{"ip_address": "198.51.100.7", "lemp": true}`
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if s.IPAddress != "198.51.100.7" {
		t.Errorf("IPAddress = %q", s.IPAddress)
	}
	if !s.LEMP {
		t.Error("LEMP should be true from the file")
	}
	// Untouched fields keep their defaults
	if !s.Fail2ban {
		t.Error("Fail2ban should keep its default (true)")
	}
	if s.SSHUser != "root" {
		t.Errorf("SSHUser should keep its default, got %q", s.SSHUser)
	}
}

func TestCache_WritesRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")

	s := Default()
	s.ConnectionPassword = "secret"
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Cache permissions = %o, want 0600", perm)
	}
}

func TestCache_FieldNamesAreStable(t *testing.T) {
	// The JSON schema is shared with older front-ends; a renamed field
	// would orphan every existing cache file.
	data, err := json.Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	required := []string{
		"ip_address", "ssh_user", "connection_password", "ssh_key_path",
		"ssh_key_passphrase", "hostname", "added_user", "user_password",
		"create_user", "fail2ban", "docker", "swap", "lemp", "devtools",
		"wordpress", "certbot", "system_hardening", "apparmor",
		"rootkit_detection", "file_integrity", "audit_logging",
		"log_monitoring", "advanced_protection", "ssh_2fa_totp",
		"ssh_2fa_fido2", "ssh_2fa_duo", "backups", "usb_restrictions",
		"install_neovim", "install_claude_code", "secure_shm", "lynis",
		"disable_ipv6", "suricata", "cron_jobs", "periodic_reboot",
		"reboot_hour",
	}
	for _, key := range required {
		if _, ok := m[key]; !ok {
			t.Errorf("Cache schema is missing field %q", key)
		}
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func validBase() *Settings {
	s := Default()
	s.IPAddress = "192.0.2.1"
	return s
}

func TestValidate_CleanConfigPasses(t *testing.T) {
	ps := validBase().Validate()
	if !ps.OK() {
		t.Errorf("Expected no blocking problems, got: %v", ps.Errors())
	}
}

func TestValidate_RequiresIP(t *testing.T) {
	s := validBase()
	s.IPAddress = ""

	ps := s.Validate()
	if ps.OK() {
		t.Error("Empty IP should block the run")
	}
}

func TestValidate_RejectsBadIP(t *testing.T) {
	s := validBase()
	s.IPAddress = "999.1.1.1"

	ps := s.Validate()
	if ps.OK() {
		t.Error("Out-of-range IP should block the run")
	}
}

func TestValidate_WordPressRequiresLEMP(t *testing.T) {
	s := validBase()
	s.WordPress = true
	s.LEMP = false

	ps := s.Validate()
	if ps.OK() {
		t.Error("WordPress without LEMP should be a blocking error")
	}

	s.LEMP = true
	ps = s.Validate()
	if !ps.OK() {
		t.Errorf("WordPress with LEMP should pass, got: %v", ps.Errors())
	}
}

func TestValidate_CertbotWithoutLEMPWarns(t *testing.T) {
	s := validBase()
	s.Certbot = true
	s.LEMP = false

	ps := s.Validate()
	if !ps.OK() {
		t.Errorf("Certbot without LEMP should not block, got: %v", ps.Errors())
	}
	if len(ps.Warnings()) == 0 {
		t.Error("Certbot without LEMP should warn")
	}
}

func TestValidate_CreateUserNeedsName(t *testing.T) {
	s := validBase()
	s.CreateUser = true
	s.AddedUser = "  "

	ps := s.Validate()
	if ps.OK() {
		t.Error("User creation without a name should block the run")
	}
}

func TestValidate_RebootHourRange(t *testing.T) {
	tests := []struct {
		hour string
		ok   bool
	}{
		{"0", true},
		{"23", true},
		{"3", true},
		{"*/6", true},
		{"*/12", true},
		{"24", false},
		{"-1", false},
		{"*/0", false},
		{"*/x", false},
		{"noon", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.hour, func(t *testing.T) {
			s := validBase()
			s.PeriodicReboot = true
			s.RebootHour = tc.hour

			ps := s.Validate()
			if ps.OK() != tc.ok {
				t.Errorf("RebootHour %q: OK() = %v, want %v", tc.hour, ps.OK(), tc.ok)
			}
		})
	}
}

func TestValidate_RebootHourIgnoredWhenRebootOff(t *testing.T) {
	s := validBase()
	s.PeriodicReboot = false
	s.RebootHour = "not-an-hour"

	if ps := s.Validate(); !ps.OK() {
		t.Errorf("Reboot hour should not matter when periodic reboot is off, got: %v", ps.Errors())
	}
}

// =============================================================================
// IP VALIDATION TESTS
// =============================================================================

func TestValidIP(t *testing.T) {
	tests := []struct {
		ip    string
		valid bool
	}{
		{"192.168.1.1", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"10.0.0.1", true},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"a.b.c.d", false},
		{"", false},
		{"192.168.1.", false},
		{"2001:db8::1", false},
		{"example.com", false},
	}

	for _, tc := range tests {
		t.Run(tc.ip, func(t *testing.T) {
			if got := ValidIP(tc.ip); got != tc.valid {
				t.Errorf("ValidIP(%q) = %v, want %v", tc.ip, got, tc.valid)
			}
		})
	}
}

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestNormalize(t *testing.T) {
	s := Default()
	s.Hostname = "  ｗｅｂ－０１  "
	s.SSHUser = " deploy "
	s.SSHKeyPath = " /home/op/.ssh/id_ed25519 "
	s.ConnectionPassword = " ｐass "

	s.Normalize()

	if s.Hostname != "web-01" {
		t.Errorf("Hostname = %q, want %q", s.Hostname, "web-01")
	}
	if s.SSHUser != "deploy" {
		t.Errorf("SSHUser = %q", s.SSHUser)
	}
	if s.SSHKeyPath != "/home/op/.ssh/id_ed25519" {
		t.Errorf("SSHKeyPath = %q", s.SSHKeyPath)
	}
	// Secrets must never be rewritten
	if s.ConnectionPassword != " ｐass " {
		t.Errorf("ConnectionPassword was modified: %q", s.ConnectionPassword)
	}
}

func TestTwoFactorEnabled(t *testing.T) {
	s := Default()
	if s.TwoFactorEnabled() {
		t.Error("2FA should be off by default")
	}

	s.SSH2FADuo = true
	if !s.TwoFactorEnabled() {
		t.Error("Duo alone should enable the 2FA umbrella")
	}
}

func TestTarget(t *testing.T) {
	s := Default()
	s.SSHUser = "root"
	s.IPAddress = "192.0.2.9"

	if got := s.Target(); got != "root@192.0.2.9" {
		t.Errorf("Target() = %q", got)
	}
}

func TestRebootScheduleLabel(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"1", "01:00 Standard"},
		{"3", "03:00 Standard"},
		{"5", "05:00 Standard"},
		{"*/6", "Interval: 6 Hours"},
		{"*/12", "Interval: 12 Hours"},
		// Hand-edited caches fall back to the default slot
		{"7", "03:00 Standard"},
		{"", "03:00 Standard"},
	}

	for _, tt := range tests {
		if got := RebootScheduleLabel(tt.value); got != tt.want {
			t.Errorf("RebootScheduleLabel(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestRebootScheduleChoices(t *testing.T) {
	choices := RebootScheduleChoices()
	if len(choices) != 5 {
		t.Fatalf("got %d choices, want 5", len(choices))
	}

	// Every choice must pass validation and carry a label
	for _, c := range choices {
		if !ValidRebootSchedule(c) {
			t.Errorf("choice %q does not validate", c)
		}
		if RebootScheduleLabel(c) == "" {
			t.Errorf("choice %q has no label", c)
		}
	}

	// The returned slice is a copy; mutating it must not leak
	choices[0] = "tampered"
	if RebootScheduleChoices()[0] == "tampered" {
		t.Error("RebootScheduleChoices returned shared backing storage")
	}
}

func TestToolOptionsFlipThroughPointer(t *testing.T) {
	s := &Settings{}
	opts := s.ToolOptions()

	if len(opts) != 31 {
		t.Fatalf("got %d tool options, want 31", len(opts))
	}

	for _, o := range opts {
		if o.Label == "" {
			t.Error("tool option with empty label")
		}
		if o.Flag == nil {
			t.Fatalf("tool option %q has nil flag", o.Label)
		}
	}

	// Flipping through the pointer must mutate the settings themselves.
	*opts[0].Flag = true
	if !s.InstallNeovim {
		t.Error("flipping the first option did not set InstallNeovim")
	}
}

func TestToolCount(t *testing.T) {
	s := &Settings{}
	enabled, total := s.ToolCount()
	if enabled != 0 || total != 31 {
		t.Errorf("empty settings: got %d/%d, want 0/31", enabled, total)
	}

	s.InstallTmux = true
	s.InstallJq = true
	enabled, _ = s.ToolCount()
	if enabled != 2 {
		t.Errorf("got %d enabled, want 2", enabled)
	}
}

func TestCopyToolSelection(t *testing.T) {
	src := Default()
	dst := &Settings{IPAddress: "192.0.2.9"}

	CopyToolSelection(src, dst)

	srcEnabled, _ := src.ToolCount()
	dstEnabled, _ := dst.ToolCount()
	if srcEnabled != dstEnabled {
		t.Errorf("copy mismatch: src %d enabled, dst %d", srcEnabled, dstEnabled)
	}

	// Only the tool switches move.
	if dst.IPAddress != "192.0.2.9" {
		t.Error("CopyToolSelection touched a non-tool field")
	}

	// Clearing from an empty source turns everything off.
	CopyToolSelection(&Settings{}, dst)
	if n, _ := dst.ToolCount(); n != 0 {
		t.Errorf("after clearing copy: %d still enabled", n)
	}
}
