// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and dispatch for rigup.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdRun
	CmdWizard
	CmdTest
	CmdVars
	CmdCache
	CmdConfig
	CmdTOTP
	CmdDoctor
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Yes        bool   // skip confirmation prompts
	Quiet      bool   // minimal output
	Verbose    bool   // debug output
	JSON       bool   // machine-readable output where supported
	ConfigPath string // alternate config file

	// Command-specific
	Subcommand  string
	ConfigKey   string
	ConfigVal   string
	Format      string // vars export format
	Output      string // vars export destination
	WithSecrets bool   // include real secret values in vars export
	Secret      string // totp shared secret

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `rigup - server provisioning front-end for ansible-playbook

Rigup collects provisioning options for a target server, remembers them
between runs, and drives ansible-playbook over SSH with live filtered
output.

Usage:
  rigup                      Start the TUI (default)
  rigup run [--yes]          Run provisioning headless with cached settings
  rigup wizard               Interactive prompt wizard (no TUI)
  rigup test                 Test the SSH connection to the target
  rigup vars [flags]         Print the ansible extra-vars for the current settings
  rigup cache [subcommand]   Cached settings management
  rigup config [subcommand]  Configuration management
  rigup totp SECRET          Print the current TOTP code for SSH 2FA login
  rigup doctor [--fix]       Environment diagnostics
  rigup version              Show version information
  rigup help                 Show this help

Run Command:
  rigup run                  Validate settings, confirm, provision
    --yes, -y                Skip the confirmation prompt (cron, CI)
  The child's exit code becomes rigup's exit code, so scripts can gate
  on provisioning success. SIGINT/SIGTERM cancel the run; the child gets
  SIGTERM first and a hard kill after the grace period.

Vars Command:
  rigup vars                 Print vars with secret values masked
    --format json|yaml       Output format (default: json)
    --with-secrets           Include real secret values (careful with shell history)
    --output FILE            Write to file instead of stdout

Cache Commands:
  rigup cache                Show cached settings (alias: show)
  rigup cache clear          Reset cached settings to defaults
    --yes, -y                Skip the confirmation prompt
  rigup cache path           Print the cache file path

Config Commands:
  rigup config               Show current configuration (alias: show)
  rigup config set KEY VAL   Set a configuration value (e.g. run.hide_timing_lines false)
  rigup config path          Print the config file path
  rigup config reset         Restore default configuration
    --yes, -y                Skip the confirmation prompt

Doctor Checks:
  ansible-playbook, ssh and ssh-agent on PATH; playbook root discovery;
  config and cached settings readable; SSH key exists and reports
  whether it needs a passphrase.
    --fix                    Attempt automatic fixes for rigup's own state
    --json                   Machine-readable results

Global Flags:
  -y, --yes       Assume yes for confirmation prompts
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          JSON output where the command supports it
  --config FILE   Use an alternate config file

Examples:
  # Day-to-day
  rigup                               Open the TUI form
  rigup run                           Provision with the cached settings
  rigup run --yes                     Provision without the confirmation prompt
  rigup test                          Check the target is reachable over SSH

  # Inspecting state
  rigup vars --format yaml            Review the vars ansible will receive
  rigup vars --with-secrets --output vars.json
  rigup cache show                    See what the TUI saved last
  rigup config show                   See effective configuration

  # Maintenance
  rigup cache clear --yes             Forget the cached settings
  rigup config set ssh.connect_timeout_secs 20
  rigup totp JBSWY3DPEHPK3PXP         Code for the SSH 2FA prompt
  rigup doctor                        Check the environment before a run

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("rigup version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs is the testable core of Parse.
func parseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	// No command means the TUI.
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui", "ui":
		return CmdTUI, parsed

	case "run", "provision", "deploy":
		return CmdRun, parsed

	case "wizard", "prompt", "interactive":
		return CmdWizard, parsed

	case "test", "check-connection":
		return CmdTest, parsed

	case "vars", "extra-vars":
		parseVarsArgs(&parsed, remaining)
		return CmdVars, parsed

	case "cache", "settings":
		if len(remaining) > 0 {
			parsed.Subcommand = remaining[0]
		}
		return CmdCache, parsed

	case "config", "cfg":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "totp", "2fa":
		if len(remaining) > 0 {
			parsed.Secret = remaining[0]
		}
		return CmdTOTP, parsed

	case "doctor", "diag", "diagnose":
		parseDoctorArgs(&parsed, remaining)
		return CmdDoctor, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// Unknown commands are an error, not a silent TUI start; a typo
		// in a cron line must not open a form on a headless box.
		fmt.Fprintf(os.Stderr, "rigup: unknown command %q\nRun 'rigup help' for usage.\n", cmd)
		os.Exit(ExitUsageError)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-y", "--yes":
			parsed.Yes = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsed.ConfigPath = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}

// parseVarsArgs parses vars command specific arguments.
func parseVarsArgs(args *Args, remaining []string) {
	args.Format = "json"

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-f", "--format":
			if i+1 < len(remaining) {
				i++
				args.Format = remaining[i]
			}
		case "-o", "--output":
			if i+1 < len(remaining) {
				i++
				args.Output = remaining[i]
			}
		case "--with-secrets":
			args.WithSecrets = true
		default:
			if strings.HasPrefix(arg, "--format=") {
				args.Format = strings.TrimPrefix(arg, "--format=")
			} else if strings.HasPrefix(arg, "--output=") {
				args.Output = strings.TrimPrefix(arg, "--output=")
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// parseDoctorArgs parses doctor command specific arguments.
func parseDoctorArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		if arg == "fix" || arg == "--fix" {
			args.Subcommand = "fix"
		}
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
