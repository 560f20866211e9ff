// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: config [subcommand]
// Short:   View and modify tool configuration
// Aliases: cfg
//
// Subcommands:
//   show (default)      Display current configuration
//   set <key> <value>   Set a configuration value
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   rigup config                              Show current config
//   rigup config show --json                  Config in JSON format
//   rigup config set ansible.playbook ~/provision/playbook.yml
//   rigup config set run.grace_period_ms 1000
//   rigup config set run.hide_timing_lines false
//   rigup config set ui.theme light
//   rigup config reset                        Reset to defaults
//   rigup config path                         Show config file location
//
// Keys use section.field form; underscores work too
// (run_grace_period_ms). This is the tool's own configuration, target
// host settings live in `rigup cache`.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/rigup/internal/config"
)

// =============================================================================
// CONFIG COMMAND HANDLER
// =============================================================================

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return configShowJSON(args)
		}
		return configShow(args)

	case "set":
		return configSet(args)

	case "reset":
		return configReset()

	case "path":
		return configPath()

	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

// configShowJSON dumps the effective configuration. rigup's config holds
// no credentials, so the whole document is printable.
func configShowJSON(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// configShow displays the current configuration grouped by section.
func configShow(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = config.Default()
	}

	path, _ := config.ConfigPathTOML()

	fmt.Println()
	fmt.Println(TitleStyle.Render("rigup Configuration"))
	fmt.Println(RenderSeparator(41))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[ansible]"))
	fmt.Printf("  %s%s\n", RenderLabel("binary:"), ValueStyle.Render(cfg.Ansible.Binary))
	playbook := cfg.Ansible.Playbook
	if playbook == "" {
		playbook = "(discovered from executable directory)"
	}
	fmt.Printf("  %s%s\n", RenderLabel("playbook:"), ValueStyle.Render(playbook))
	inventory := cfg.Ansible.Inventory
	if inventory == "" {
		inventory = "(none)"
	}
	fmt.Printf("  %s%s\n", RenderLabel("inventory:"), ValueStyle.Render(inventory))
	fmt.Printf("  %s%s\n", RenderLabel("no_color:"), ValueStyle.Render(boolStr(cfg.Ansible.NoColor)))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[ssh]"))
	fmt.Printf("  %s%s\n", RenderLabel("binary:"), ValueStyle.Render(cfg.SSH.Binary))
	fmt.Printf("  %s%s\n", RenderLabel("agent_binary:"), ValueStyle.Render(cfg.SSH.AgentBinary))
	fmt.Printf("  %s%s\n", RenderLabel("connect_timeout:"),
		ValueStyle.Render(fmt.Sprintf("%d seconds", cfg.SSH.ConnectTimeoutSecs)))
	fmt.Printf("  %s%s\n", RenderLabel("strict_host_key:"), ValueStyle.Render(boolStr(cfg.SSH.StrictHostKeyChecking)))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[run]"))
	logPath, _ := cfg.RunLogPath()
	fmt.Printf("  %s%s\n", RenderLabel("log_path:"), ValueStyle.Render(logPath))
	fmt.Printf("  %s%s\n", RenderLabel("grace_period:"),
		ValueStyle.Render(fmt.Sprintf("%d ms", cfg.Run.GracePeriodMS)))
	fmt.Printf("  %s%s\n", RenderLabel("hide_timing:"), ValueStyle.Render(boolStr(cfg.Run.HideTimingLines)))
	fmt.Printf("  %s%s\n", RenderLabel("prefix_stderr:"), ValueStyle.Render(boolStr(cfg.Run.PrefixStderr)))
	fmt.Printf("  %s%s\n", RenderLabel("kill_duplicates:"), ValueStyle.Render(boolStr(cfg.Run.KillDuplicates)))
	fmt.Printf("  %s%s\n", RenderLabel("max_log_size:"),
		ValueStyle.Render(fmt.Sprintf("%d MB", cfg.Run.MaxLogSizeMB)))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[ui]"))
	fmt.Printf("  %s%s\n", RenderLabel("theme:"), ValueStyle.Render(cfg.UI.Theme))
	fmt.Printf("  %s%s\n", RenderLabel("compact_mode:"), ValueStyle.Render(boolStr(cfg.UI.CompactMode)))
	fmt.Printf("  %s%s\n", RenderLabel("confirm_run:"), ValueStyle.Render(boolStr(cfg.UI.ConfirmBeforeRun)))
	fmt.Printf("  %s%s\n", RenderLabel("watch_cache:"), ValueStyle.Render(boolStr(cfg.UI.WatchCache)))
	fmt.Println()

	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))
	fmt.Printf("Config file: %s\n", DimStyle.Render(path))
	fmt.Println()

	return nil
}

// configSet sets one configuration value by dotted key.
func configSet(args Args) error {
	key := args.ConfigKey
	value := args.ConfigVal
	if key == "" {
		return fmt.Errorf("no config key provided\nUsage: rigup config set <key> <value>")
	}
	if value == "" {
		return fmt.Errorf("no config value provided\nUsage: rigup config set %s <value>", key)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = config.Default()
	}

	// section_field and section.field both work.
	key = strings.ToLower(key)
	if !strings.Contains(key, ".") {
		key = strings.Replace(key, "_", ".", 1)
	}

	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("%w\n\nValid keys:\n  %s", err, strings.Join(config.GetAllKeys(), "\n  "))
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

// configReset writes the default configuration.
func configReset() error {
	if err := config.Save(config.Default()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	path, _ := config.ConfigPathTOML()
	fmt.Printf("%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("Config file: %s\n", DimStyle.Render(path))
	return nil
}

// configPath shows the config file path.
func configPath() error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fmt.Println(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "%s (file does not exist, will be created on first use)\n",
			DimStyle.Render("Note"))
	}
	return nil
}

// boolStr renders a bool the way it appears in the config file.
func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
