// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for rigup.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.rigup/config.toml
//   - ~/.rigup/config.json
//   - Built-in defaults
//
// This file holds app-level configuration only (paths, binaries, UI
// preferences). The provisioning form values live in the settings cache,
// which has its own schema and location (see internal/settings).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigup configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Ansible invocation configuration
	Ansible AnsibleConfig `toml:"ansible" json:"ansible"`

	// SSH tooling configuration
	SSH SSHConfig `toml:"ssh" json:"ssh"`

	// Provisioning run configuration
	Run RunConfig `toml:"run" json:"run"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// AnsibleConfig controls how the external ansible-playbook binary is invoked.
type AnsibleConfig struct {
	// Binary is the ansible-playbook executable name or path.
	Binary string `toml:"binary" json:"binary"`
	// Playbook is an explicit path to the playbook. When empty, the playbook
	// root is discovered by walking up from the executable directory looking
	// for playbook.yml.
	Playbook string `toml:"playbook" json:"playbook"`
	// Inventory is an optional inventory file passed with -i.
	Inventory string `toml:"inventory" json:"inventory"`
	// NoColor sets ANSIBLE_NOCOLOR=1 in the child environment. Output is
	// ANSI-stripped either way; this just spares ansible the work.
	NoColor bool `toml:"no_color" json:"no_color"`
}

// SSHConfig controls the ssh/ssh-agent binaries used for the connection
// test and for loading passphrase-protected keys.
type SSHConfig struct {
	// Binary is the ssh executable name or path.
	Binary string `toml:"binary" json:"binary"`
	// AgentBinary is the ssh-agent executable name or path.
	AgentBinary string `toml:"agent_binary" json:"agent_binary"`
	// ConnectTimeoutSecs is passed as -o ConnectTimeout for the test.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs" json:"connect_timeout_secs"`
	// StrictHostKeyChecking controls -o StrictHostKeyChecking. Off by
	// default: freshly imaged hosts have unknown keys.
	StrictHostKeyChecking bool `toml:"strict_host_key_checking" json:"strict_host_key_checking"`
}

// RunConfig controls provisioning run behavior and the flat run log.
type RunConfig struct {
	// LogPath is the flat log file for the last run (empty = default
	// ~/.rigup/last-run.log). Truncated at every run start.
	LogPath string `toml:"log_path" json:"log_path"`
	// GracePeriodMS is how long a canceled child gets between SIGTERM and
	// SIGKILL, in milliseconds.
	GracePeriodMS int `toml:"grace_period_ms" json:"grace_period_ms"`
	// HideTimingLines drops ansible's timing separator rows from the
	// output pane and log.
	HideTimingLines bool `toml:"hide_timing_lines" json:"hide_timing_lines"`
	// PrefixStderr prefixes child stderr lines so the operator can tell
	// the streams apart.
	PrefixStderr bool `toml:"prefix_stderr" json:"prefix_stderr"`
	// KillDuplicates terminates other live instances of this program at
	// startup so two cockpits never fight over the same cache file.
	KillDuplicates bool `toml:"kill_duplicates" json:"kill_duplicates"`
	// MaxLogSizeMB caps the run log size; lines past the cap are dropped.
	MaxLogSizeMB int `toml:"max_log_size_mb" json:"max_log_size_mb"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ConfirmBeforeRun shows the review screen before launching a run
	ConfirmBeforeRun bool `toml:"confirm_before_run" json:"confirm_before_run"`
	// WatchCache reloads the form when another instance rewrites the
	// settings cache file
	WatchCache bool `toml:"watch_cache" json:"watch_cache"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Ansible: AnsibleConfig{
			Binary:    "ansible-playbook",
			Playbook:  "",
			Inventory: "",
			NoColor:   true,
		},

		SSH: SSHConfig{
			Binary:                "ssh",
			AgentBinary:           "ssh-agent",
			ConnectTimeoutSecs:    10,
			StrictHostKeyChecking: false,
		},

		Run: RunConfig{
			LogPath:         "",
			GracePeriodMS:   500,
			HideTimingLines: true,
			PrefixStderr:    true,
			KillDuplicates:  true,
			MaxLogSizeMB:    10,
		},

		UI: UIConfig{
			Theme:            "dark",
			CompactMode:      false,
			ConfirmBeforeRun: true,
			WatchCache:       true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigup configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigup"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// RunLogPath resolves the run log location, honoring the config override.
func (c *Config) RunLogPath() (string, error) {
	if c.Run.LogPath != "" {
		return c.Run.LogPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "last-run.log"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only); the
// config can name private key paths and inventory locations.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err // File doesn't exist or not accessible
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
// CONFIG: Comprehensive validation ensures safe configuration
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// No file loaded: defaults plus overrides
	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies the post-load pipeline shared by every entry point.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
// CONFIG: Comprehensive validation ensures safe configuration
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	// Determine file type and load accordingly
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	// General
	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Ansible
	if cfg.Ansible.Binary == "" {
		cfg.Ansible.Binary = defaults.Ansible.Binary
	}

	// SSH
	if cfg.SSH.Binary == "" {
		cfg.SSH.Binary = defaults.SSH.Binary
	}
	if cfg.SSH.AgentBinary == "" {
		cfg.SSH.AgentBinary = defaults.SSH.AgentBinary
	}
	if cfg.SSH.ConnectTimeoutSecs == 0 {
		cfg.SSH.ConnectTimeoutSecs = defaults.SSH.ConnectTimeoutSecs
	}

	// Run
	if cfg.Run.GracePeriodMS == 0 {
		cfg.Run.GracePeriodMS = defaults.Run.GracePeriodMS
	}
	if cfg.Run.MaxLogSizeMB == 0 {
		cfg.Run.MaxLogSizeMB = defaults.Run.MaxLogSizeMB
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// SECURITY: Create file with restrictive permissions (0600 = owner read/write only)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	// Write header comment
	fmt.Fprintln(file, "# rigup configuration file")
	fmt.Fprintln(file, "# Generated by rigup - edit with care")
	fmt.Fprintln(file, "#")
	fmt.Fprintln(file, "# Documentation: https://github.com/jeranaias/rigup")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// CONFIG: Comprehensive validation ensures safe configuration

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
// CONFIG: Comprehensive validation ensures safe configuration
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Ansible Settings Validation
	// ==========================================================================

	if strings.TrimSpace(c.Ansible.Binary) == "" {
		errs = append(errs, ValidationError{
			Field:   "ansible.binary",
			Message: "binary must not be empty",
		})
	}

	// An explicit playbook path must point at a file, not a directory name
	// with a trailing separator. Existence is checked later at run time,
	// not here: the playbook may live on removable media.
	if c.Ansible.Playbook != "" && strings.HasSuffix(c.Ansible.Playbook, string(os.PathSeparator)) {
		errs = append(errs, ValidationError{
			Field:   "ansible.playbook",
			Message: "playbook must be a file path, not a directory",
		})
	}

	// ==========================================================================
	// SSH Settings Validation
	// ==========================================================================

	if strings.TrimSpace(c.SSH.Binary) == "" {
		errs = append(errs, ValidationError{
			Field:   "ssh.binary",
			Message: "binary must not be empty",
		})
	}

	if c.SSH.ConnectTimeoutSecs < 1 || c.SSH.ConnectTimeoutSecs > 120 {
		errs = append(errs, ValidationError{
			Field:   "ssh.connect_timeout_secs",
			Message: fmt.Sprintf("must be 1-120 seconds, got %d", c.SSH.ConnectTimeoutSecs),
		})
	}

	// ==========================================================================
	// Run Settings Validation
	// ==========================================================================

	// Grace period below 100ms gives ansible no chance to print its recap;
	// above 10s the kill is no longer "best effort", it's a hang.
	if c.Run.GracePeriodMS < 100 || c.Run.GracePeriodMS > 10000 {
		errs = append(errs, ValidationError{
			Field:   "run.grace_period_ms",
			Message: fmt.Sprintf("must be 100-10000 milliseconds, got %d", c.Run.GracePeriodMS),
		})
	}

	if c.Run.MaxLogSizeMB < 1 || c.Run.MaxLogSizeMB > 512 {
		errs = append(errs, ValidationError{
			Field:   "run.max_log_size_mb",
			Message: fmt.Sprintf("must be 1-512 MB, got %d", c.Run.MaxLogSizeMB),
		})
	}

	// ==========================================================================
	// UI Settings Validation
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
// CONFIG: Comprehensive validation ensures safe configuration
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Ansible.Binary == "" {
		c.Ansible.Binary = defaults.Ansible.Binary
	}

	if c.SSH.Binary == "" {
		c.SSH.Binary = defaults.SSH.Binary
	}
	if c.SSH.AgentBinary == "" {
		c.SSH.AgentBinary = defaults.SSH.AgentBinary
	}
	if c.SSH.ConnectTimeoutSecs == 0 {
		c.SSH.ConnectTimeoutSecs = defaults.SSH.ConnectTimeoutSecs
	}

	if c.Run.GracePeriodMS == 0 {
		c.Run.GracePeriodMS = defaults.Run.GracePeriodMS
	}
	if c.Run.MaxLogSizeMB == 0 {
		c.Run.MaxLogSizeMB = defaults.Run.MaxLogSizeMB
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Migrate handles migration from old configuration formats to new ones.
// CONFIG: Comprehensive validation ensures safe configuration
func (c *Config) Migrate() error {
	// Theme names are matched case-insensitively everywhere else; store
	// the canonical lowercase form.
	c.UI.Theme = strings.ToLower(c.UI.Theme)
	if c.UI.Theme == "auto-detect" {
		c.UI.Theme = "auto"
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGUP_PLAYBOOK: overrides ansible.playbook
//   - RIGUP_ANSIBLE_BIN: overrides ansible.binary
//   - RIGUP_INVENTORY: overrides ansible.inventory
//   - RIGUP_SSH_BIN: overrides ssh.binary
//   - RIGUP_LOG_PATH: overrides run.log_path
//   - RIGUP_GRACE_MS: overrides run.grace_period_ms
//   - RIGUP_THEME: overrides ui.theme
//   - RIGUP_NO_CONFIRM: set to "1" or "true" to skip the review screen
func (c *Config) ApplyEnvOverrides() {
	if playbook := os.Getenv("RIGUP_PLAYBOOK"); playbook != "" {
		c.Ansible.Playbook = playbook
	}

	if bin := os.Getenv("RIGUP_ANSIBLE_BIN"); bin != "" {
		c.Ansible.Binary = bin
	}

	if inv := os.Getenv("RIGUP_INVENTORY"); inv != "" {
		c.Ansible.Inventory = inv
	}

	if bin := os.Getenv("RIGUP_SSH_BIN"); bin != "" {
		c.SSH.Binary = bin
	}

	if logPath := os.Getenv("RIGUP_LOG_PATH"); logPath != "" {
		c.Run.LogPath = logPath
	}

	if grace := os.Getenv("RIGUP_GRACE_MS"); grace != "" {
		if ms, err := strconv.Atoi(grace); err == nil {
			c.Run.GracePeriodMS = ms
		}
	}

	if theme := os.Getenv("RIGUP_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if noConfirm := os.Getenv("RIGUP_NO_CONFIRM"); noConfirm != "" {
		c.UI.ConfirmBeforeRun = !(noConfirm == "1" || strings.ToLower(noConfirm) == "true")
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "run.grace_period_ms").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		// Normalize the part name
		fieldName := normalizeFieldName(part)

		// Find the field
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, return the value
		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		// Normalize the part name
		fieldName := normalizeFieldName(part)

		// Find the field
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, set the value
		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	// Remove underscores and capitalize following letters
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"ansible.binary",
		"ansible.playbook",
		"ansible.inventory",
		"ansible.no_color",
		"ssh.binary",
		"ssh.agent_binary",
		"ssh.connect_timeout_secs",
		"ssh.strict_host_key_checking",
		"run.log_path",
		"run.grace_period_ms",
		"run.hide_timing_lines",
		"run.prefix_stderr",
		"run.kill_duplicates",
		"run.max_log_size_mb",
		"ui.theme",
		"ui.compact_mode",
		"ui.confirm_before_run",
		"ui.watch_cache",
	}
}

// Clone creates a copy of the configuration. All fields are value types,
// so the struct copy is a full copy; the method exists so callers can
// mutate a scratch config without reaching through shared pointers.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// App config carries no secrets (credentials live only in the settings
// cache), so nothing needs redacting here.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	// Use sync.Once to ensure initialization happens exactly once
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
