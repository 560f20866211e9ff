// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for rigup.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - AnsibleConfig: ansible-playbook invocation settings
//   - SSHConfig: ssh/ssh-agent tooling settings
//   - RunConfig: run behavior and flat run-log settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGUP_*)
//   - ~/.rigup/config.toml
//   - ~/.rigup/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	playbook := cfg.Ansible.Playbook
//	grace := cfg.Run.GracePeriodMS
package config
