// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal contains race detection tests for the rigup TUI.
//
// Run with: go test -race -v ./internal/...
//
// These tests are designed to detect data races under concurrent access
// patterns that match real usage: the update loop reading run state while
// stream goroutines write it, the run log taking lines from two pipes at
// once, and settings shared between the form and background commands.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/runlog"
	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// TEST CONFIGURATION
// =============================================================================

const (
	// Number of concurrent goroutines for race tests
	raceConcurrency = 100
	// Number of iterations per goroutine
	raceIterations = 50
	// Timeout for race tests
	raceTimeout = 30 * time.Second
)

// =============================================================================
// CONFIG CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_ConfigGlobalAccess tests concurrent access to the global
// config singleton. The TUI, the watcher goroutine, and command handlers
// all read it.
func TestConcurrency_ConfigGlobalAccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	config.ResetGlobalForTesting()

	ctx, cancel := context.WithTimeout(context.Background(), raceTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				cfg := config.Global()
				if cfg == nil {
					continue
				}
				_ = cfg.UI.Theme
				_ = cfg.Run.GracePeriodMS
				_ = cfg.Ansible.Binary
			}
		}()
	}
	wg.Wait()

	if cfg := config.Global(); cfg == nil {
		t.Fatal("global config should be initialized after concurrent access")
	}
}

// TestConcurrency_ConfigReloadDuringReads tests reloading the global
// config while readers hold references.
func TestConcurrency_ConfigReloadDuringReads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	config.ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				if cfg := config.Global(); cfg != nil {
					_ = cfg.Run.LogPath
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				_ = config.ReloadGlobal()
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// RUN STATE CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_RunStateAccess tests concurrent reads of run state
// while status transitions land. The update loop polls GetStatus and
// Duration on every frame while the runner goroutine drives transitions.
func TestConcurrency_RunStateAccess(t *testing.T) {
	run := provision.NewRun("root@192.0.2.1", "ansible-playbook playbook.yml")

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				_ = run.GetStatus()
				_ = run.Duration()
				_ = run.IsRunning()
				_ = run.IsDone()
				_ = run.Summary()
				_ = run.Tail()
				_ = run.ExitCode()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		run.MarkStarted()
		time.Sleep(5 * time.Millisecond)
		run.MarkComplete()
	}()

	wg.Wait()

	if !run.IsDone() {
		t.Error("run should be done after the writer finishes")
	}
	if run.GetStatus() != provision.StatusComplete {
		t.Errorf("status = %v, want complete", run.GetStatus())
	}
}

// TestConcurrency_RunCancelRace tests concurrent Cancel calls racing
// the runner's confirmation. Cancel only fires the context; once the
// runner confirms with MarkCanceled, further Cancels must report false.
func TestConcurrency_RunCancelRace(t *testing.T) {
	run := provision.NewRun("root@192.0.2.1", "preview")
	run.SetCancelFunc(func() {})
	run.MarkStarted()

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = run.Cancel()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(2 * time.Millisecond)
		run.MarkCanceled()
	}()
	wg.Wait()

	if run.GetStatus() != provision.StatusCanceled {
		t.Errorf("status = %v, want canceled", run.GetStatus())
	}
	if run.Cancel() {
		t.Error("Cancel after confirmation should report false")
	}
}

// =============================================================================
// RUN LOG CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_RunLogWriter tests interleaved writes from many
// goroutines. In production two stream readers write concurrently; this
// leans harder on the same lock.
func TestConcurrency_RunLogWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-run.log")
	w, err := runlog.New(path, 64*1024*1024)
	if err != nil {
		t.Fatalf("opening run log: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				w.Line(fmt.Sprintf("worker %d line %d", id, j))
			}
		}(i)
	}
	wg.Wait()

	if err := w.Close(); err != nil {
		t.Fatalf("closing run log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading run log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if got, want := len(lines), raceConcurrency*raceIterations; got != want {
		t.Errorf("log line count = %d, want %d", got, want)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "worker ") {
			t.Fatalf("interleaved write corrupted a line: %q", line)
		}
	}
}

// TestConcurrency_RunLogRedactorRegistration tests adding redactors
// while lines are being written.
func TestConcurrency_RunLogRedactorRegistration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-run.log")
	w, err := runlog.New(path, 64*1024*1024)
	if err != nil {
		t.Fatalf("opening run log: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				w.Line("password=swordfish should be masked")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < raceIterations; j++ {
			w.AddRedactor(runlog.NewPatternRedactor(
				fmt.Sprintf("token-%d", j),
				regexp.MustCompile(`tok_\w+`),
				"tok_[REDACTED]",
			))
		}
	}()
	wg.Wait()

	if w.Redact("password=swordfish") == "password=swordfish" {
		t.Error("default redactors should mask password values")
	}
	if w.Redact("tok_abc123") != "tok_[REDACTED]" {
		t.Error("registered redactor should survive concurrent writes")
	}
}

// =============================================================================
// SIGNAL FLAG CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_ShutdownFlagReads tests that the latched signal flag
// can be polled from many goroutines. The update loop polls it on a
// ticker while the signal goroutine may store into it at any moment.
func TestConcurrency_ShutdownFlagReads(t *testing.T) {
	provision.WatchShutdownFlag()

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				_ = provision.ShutdownRequested()
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// SHARED SETTINGS CONCURRENCY TESTS
// =============================================================================

// TestConcurrency_SettingsReadSharing tests the read paths that run
// concurrently against one settings value: validation for the form,
// variable construction for the preview, and tool counting for the
// status line.
func TestConcurrency_SettingsReadSharing(t *testing.T) {
	s := settings.Default()
	s.IPAddress = "192.0.2.1"
	s.LEMP = true

	var wg sync.WaitGroup
	for i := 0; i < raceConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				_ = s.Validate()
				_ = ansible.BuildVars(s)
				_, _ = s.ToolCount()
				_ = s.Target()
			}
		}()
	}
	wg.Wait()
}

// TestConcurrency_CacheLoadWhileSaving tests readers loading the cache
// while a single writer saves. The watcher-triggered reload path does
// exactly this when the headless command saves underneath the TUI.
func TestConcurrency_CacheLoadWhileSaving(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	seed := settings.Default()
	seed.IPAddress = "192.0.2.1"
	if err := seed.Save(); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < raceIterations; j++ {
			s := settings.Default()
			s.IPAddress = fmt.Sprintf("192.0.2.%d", j%250+1)
			if err := s.Save(); err != nil {
				t.Errorf("save: %v", err)
				return
			}
		}
	}()

	for i := 0; i < raceConcurrency/4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < raceIterations; j++ {
				s, err := settings.Load()
				if err != nil {
					t.Errorf("load during save: %v", err)
					return
				}
				// Saves are atomic renames, so a reader must never
				// observe a half-written file.
				if !strings.HasPrefix(s.IPAddress, "192.0.2.") {
					t.Errorf("torn read: ip = %q", s.IPAddress)
					return
				}
			}
		}()
	}
	wg.Wait()
}
