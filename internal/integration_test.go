// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides integration tests for the complete rigup pipeline.
//
// These tests verify end-to-end functionality including:
// - Settings cache persistence round trips
// - Extra-variable construction and invocation building
// - Subprocess spawning, output streaming, and exit handling
// - Run log contents and credential redaction
// - Cancellation of a live run
// - Config file round trips
package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

// requireShell skips subprocess tests where /bin/sh is unavailable.
func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh on this platform")
	}
}

// writeScript drops an executable stand-in for ansible-playbook into a
// temp dir and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ansible-playbook")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write fake binary: %v", err)
	}
	return path
}

// pipelineConfig builds a config whose playbook resolution, binary, and
// run log all point into temp dirs, so a full run touches nothing real.
func pipelineConfig(t *testing.T, script string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	playbook := filepath.Join(dir, "playbook.yml")
	if err := os.WriteFile(playbook, []byte("---\n- hosts: all\n"), 0o644); err != nil {
		t.Fatalf("failed to write playbook: %v", err)
	}
	cfg := config.Default()
	cfg.Ansible.Binary = script
	cfg.Ansible.Playbook = playbook
	cfg.Run.LogPath = filepath.Join(dir, "last-run.log")
	cfg.Run.GracePeriodMS = 500
	return cfg
}

// pipelineSettings returns settings that validate cleanly against a
// documentation-range target.
func pipelineSettings() *settings.Settings {
	s := settings.Default()
	s.IPAddress = "192.0.2.10"
	return s
}

// drainRun collects line events until the Done event arrives.
func drainRun(t *testing.T, events <-chan provision.Event) ([]string, *provision.Outcome) {
	t.Helper()
	var lines []string
	deadline := time.After(20 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event channel closed without a Done event")
			}
			if ev.Kind == provision.EventLine {
				lines = append(lines, ev.Line)
			}
			if ev.Kind == provision.EventDone {
				return lines, ev.Outcome
			}
		case <-deadline:
			t.Fatal("timed out waiting for the run to finish")
		}
	}
}

// readLog reads the run log produced by a finished run.
func readLog(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path, err := cfg.RunLogPath()
	if err != nil {
		t.Fatalf("resolving run log path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading run log: %v", err)
	}
	return string(data)
}

// =============================================================================
// END-TO-END PROVISIONING PIPELINE
// =============================================================================

// TestProvisioningPipeline drives the full path a TUI run takes: settings
// are validated, flattened into extra variables, resolved into an
// invocation, spawned, streamed, and logged.
func TestProvisioningPipeline(t *testing.T) {
	requireShell(t)

	script := writeScript(t, `
echo "PLAY [provision] *********"
echo "TASK [ping] *********"
echo "ok: [192.0.2.10]"
echo "diagnostic chatter" >&2
exit 0
`)
	cfg := pipelineConfig(t, script)
	s := pipelineSettings()
	s.UserPassword = "hunter2-secret"

	if problems := s.Validate(); !problems.OK() {
		t.Fatalf("settings should validate, got: %v", problems.Errors())
	}

	inv, err := ansible.NewInvocation(cfg, s)
	if err != nil {
		t.Fatalf("building invocation: %v", err)
	}
	if inv.Target() != "root@192.0.2.10" {
		t.Errorf("target = %q, want root@192.0.2.10", inv.Target())
	}

	runner := provision.NewRunner(cfg)
	run, events, err := runner.Start(context.Background(), inv)
	if err != nil {
		t.Fatalf("starting run: %v", err)
	}

	lines, outcome := drainRun(t, events)

	if outcome == nil || !outcome.Success() {
		t.Fatalf("run should succeed, outcome = %+v", outcome)
	}
	if outcome.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", outcome.ExitCode)
	}
	if run.GetStatus() != provision.StatusComplete {
		t.Errorf("run status = %v, want complete", run.GetStatus())
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "PLAY [provision]") {
		t.Errorf("stdout lines missing from stream:\n%s", joined)
	}
	if !strings.Contains(joined, "[STDERR] diagnostic chatter") {
		t.Errorf("stderr line not tagged in stream:\n%s", joined)
	}

	logContent := readLog(t, cfg)
	if !strings.Contains(logContent, "=== rigup run started") {
		t.Error("run log missing the start header")
	}
	if !strings.Contains(logContent, "target: root@192.0.2.10") {
		t.Error("run log missing the target line")
	}
	if !strings.Contains(logContent, "=== run SUCCEEDED (exit 0)") {
		t.Error("run log missing the success footer")
	}
	if !strings.Contains(logContent, "ok: [192.0.2.10]") {
		t.Error("run log missing the streamed body")
	}
}

// TestPipelineRedactsCredentials verifies that the password set in the
// form never reaches the run log, on the command preview line or
// anywhere else.
func TestPipelineRedactsCredentials(t *testing.T) {
	requireShell(t)

	script := writeScript(t, `
echo "TASK [users] *********"
exit 0
`)
	cfg := pipelineConfig(t, script)
	s := pipelineSettings()
	s.UserPassword = "hunter2-secret"
	s.ConnectionPassword = "root-pw-secret"

	inv, err := ansible.NewInvocation(cfg, s)
	if err != nil {
		t.Fatalf("building invocation: %v", err)
	}

	runner := provision.NewRunner(cfg)
	_, events, err := runner.Start(context.Background(), inv)
	if err != nil {
		t.Fatalf("starting run: %v", err)
	}
	drainRun(t, events)

	logContent := readLog(t, cfg)
	for _, secret := range []string{"hunter2-secret", "root-pw-secret"} {
		if strings.Contains(logContent, secret) {
			t.Errorf("run log leaked credential %q", secret)
		}
	}
	if !strings.Contains(logContent, "user_password=[REDACTED]") {
		t.Error("run log preview should carry the redaction marker")
	}
}

// TestPipelineFailureExitCode verifies a failing playbook surfaces its
// exit code through the outcome and the run log footer.
func TestPipelineFailureExitCode(t *testing.T) {
	requireShell(t)

	script := writeScript(t, `
echo "TASK [firewall] *********"
echo "fatal: unreachable" >&2
exit 3
`)
	cfg := pipelineConfig(t, script)

	inv, err := ansible.NewInvocation(cfg, pipelineSettings())
	if err != nil {
		t.Fatalf("building invocation: %v", err)
	}

	runner := provision.NewRunner(cfg)
	run, events, err := runner.Start(context.Background(), inv)
	if err != nil {
		t.Fatalf("starting run: %v", err)
	}
	_, outcome := drainRun(t, events)

	if outcome.Success() {
		t.Fatal("run should fail")
	}
	if outcome.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", outcome.ExitCode)
	}
	if run.GetStatus() != provision.StatusFailed {
		t.Errorf("run status = %v, want failed", run.GetStatus())
	}
	if logContent := readLog(t, cfg); !strings.Contains(logContent, "=== run FAILED (exit 3)") {
		t.Error("run log missing the failure footer")
	}
}

// TestPipelineCancellation verifies a live run can be canceled and is
// recorded as canceled, not failed.
func TestPipelineCancellation(t *testing.T) {
	requireShell(t)

	script := writeScript(t, `
echo "TASK [slow] *********"
exec sleep 30
`)
	cfg := pipelineConfig(t, script)

	inv, err := ansible.NewInvocation(cfg, pipelineSettings())
	if err != nil {
		t.Fatalf("building invocation: %v", err)
	}

	runner := provision.NewRunner(cfg)
	run, events, err := runner.Start(context.Background(), inv)
	if err != nil {
		t.Fatalf("starting run: %v", err)
	}

	canceled := false
	deadline := time.After(20 * time.Second)
	var outcome *provision.Outcome
drain:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event channel closed without a Done event")
			}
			if ev.Kind == provision.EventLine && !canceled {
				// First output proves the child is alive; cancel it.
				canceled = true
				if !runner.CancelCurrent() {
					t.Fatal("CancelCurrent found no live run")
				}
			}
			if ev.Kind == provision.EventDone {
				outcome = ev.Outcome
				break drain
			}
		case <-deadline:
			t.Fatal("timed out waiting for cancellation to land")
		}
	}

	if !canceled {
		t.Fatal("never saw output from the child")
	}
	if run.GetStatus() != provision.StatusCanceled {
		t.Errorf("run status = %v, want canceled", run.GetStatus())
	}
	if outcome == nil || outcome.Status != provision.StatusCanceled {
		t.Errorf("outcome = %+v, want canceled", outcome)
	}
}

// =============================================================================
// SETTINGS AND CONFIG PERSISTENCE
// =============================================================================

// TestSettingsRoundTripThroughCache verifies the cache file written on
// save is what a fresh load reads back, at the legacy fixed path.
func TestSettingsRoundTripThroughCache(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s := settings.Default()
	s.IPAddress = "192.0.2.77"
	s.Hostname = "web-01"
	s.LEMP = true
	s.InstallNeovim = false
	if err := s.Save(); err != nil {
		t.Fatalf("saving settings: %v", err)
	}

	path, err := settings.CachePath()
	if err != nil {
		t.Fatalf("resolving cache path: %v", err)
	}
	if filepath.Base(path) != ".ansible_provisioning_cache.json" {
		t.Errorf("cache file = %q, want the legacy name", filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("cache perms = %o, want 600", perm)
	}

	loaded, err := settings.Load()
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}
	if loaded.IPAddress != "192.0.2.77" || loaded.Hostname != "web-01" {
		t.Errorf("connection fields lost in round trip: %+v", loaded)
	}
	if !loaded.LEMP || loaded.InstallNeovim {
		t.Error("toggle states lost in round trip")
	}
}

// TestConfigRoundTripTOML verifies config survives a save and load
// through an explicit path, as used by --config.
func TestConfigRoundTripTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := config.Default()
	cfg.UI.Theme = "light"
	cfg.Run.HideTimingLines = false
	cfg.Ansible.Inventory = "hosts.ini"
	if err := config.SaveTOML(cfg, path); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("theme = %q, want light", loaded.UI.Theme)
	}
	if loaded.Run.HideTimingLines {
		t.Error("hide_timing_lines should stay false")
	}
	if loaded.Ansible.Inventory != "hosts.ini" {
		t.Errorf("inventory = %q, want hosts.ini", loaded.Ansible.Inventory)
	}
}

// =============================================================================
// VARIABLE EXPORT
// =============================================================================

// TestVarsExportMasksSecrets verifies the export path offered by the
// vars command masks credentials unless explicitly told otherwise.
func TestVarsExportMasksSecrets(t *testing.T) {
	s := pipelineSettings()
	s.UserPassword = "hunter2-secret"
	vars := ansible.BuildVars(s)

	masked, err := ansible.Export(vars, "yaml", false)
	if err != nil {
		t.Fatalf("yaml export: %v", err)
	}
	if strings.Contains(masked, "hunter2-secret") {
		t.Error("masked export leaked the password")
	}
	if !strings.Contains(masked, ansible.RedactedValue) {
		t.Error("masked export missing the redaction marker")
	}

	full, err := ansible.Export(vars, "json", true)
	if err != nil {
		t.Fatalf("json export: %v", err)
	}
	if !strings.Contains(full, "hunter2-secret") {
		t.Error("explicit secrets export should carry the real value")
	}
}
