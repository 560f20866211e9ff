// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"fmt"
	"strings"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from  Status
		to    Status
		valid bool
	}{
		{StatusQueued, StatusRunning, true},
		{StatusQueued, StatusCanceled, true},
		{StatusQueued, StatusComplete, false},
		{StatusQueued, StatusFailed, false},
		{StatusRunning, StatusComplete, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusCanceled, true},
		{StatusRunning, StatusQueued, false},
		{StatusComplete, StatusRunning, false},
		{StatusFailed, StatusCanceled, false},
		{StatusCanceled, StatusRunning, false},
		{StatusRunning, StatusRunning, true},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tc.from, tc.to), func(t *testing.T) {
			if got := isValidTransition(tc.from, tc.to); got != tc.valid {
				t.Errorf("isValidTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.valid)
			}
		})
	}
}

func TestRun_SetStatusRejectsInvalid(t *testing.T) {
	run := NewRun("root@192.0.2.1", "ansible-playbook playbook.yml")

	if err := run.SetStatus(StatusComplete); err == nil {
		t.Error("Queued run should not jump straight to Complete")
	}
	if err := run.SetStatus(StatusRunning); err != nil {
		t.Errorf("Queued -> Running should be allowed: %v", err)
	}
	if err := run.SetStatus(StatusFailed); err != nil {
		t.Errorf("Running -> Failed should be allowed: %v", err)
	}
	if err := run.SetStatus(StatusRunning); err == nil {
		t.Error("Failed is terminal")
	}
}

func TestRun_CancelStates(t *testing.T) {
	run := NewRun("root@192.0.2.1", "cmd")

	var fired bool
	run.SetCancelFunc(func() { fired = true })

	run.MarkStarted()
	if !run.Cancel() {
		t.Error("Cancel on a running run should report true")
	}
	if !fired {
		t.Error("Cancel should fire the stored cancel func")
	}

	run.MarkCanceled()
	if run.Cancel() {
		t.Error("Cancel on a finished run should report false")
	}
}

func TestRun_ExitCodeDefaultsToMinusOne(t *testing.T) {
	run := NewRun("root@192.0.2.1", "cmd")
	if run.ExitCode() != -1 {
		t.Errorf("ExitCode before exit = %d, want -1", run.ExitCode())
	}

	run.MarkStarted()
	run.MarkComplete()
	if run.ExitCode() != 0 {
		t.Errorf("ExitCode after MarkComplete = %d, want 0", run.ExitCode())
	}
}

func TestRun_Tail(t *testing.T) {
	run := NewRun("root@192.0.2.1", "cmd")
	for i := 0; i < tailLines+5; i++ {
		run.appendTail(fmt.Sprintf("line %d", i))
	}

	tail := run.Tail()
	if len(tail) != tailLines {
		t.Fatalf("Tail length = %d, want %d", len(tail), tailLines)
	}
	if tail[len(tail)-1] != fmt.Sprintf("line %d", tailLines+4) {
		t.Errorf("Tail should end with the newest line, got %q", tail[len(tail)-1])
	}
	if tail[0] != "line 5" {
		t.Errorf("Tail should drop the oldest lines, got %q first", tail[0])
	}
}

func TestRun_Summary(t *testing.T) {
	run := NewRun("root@192.0.2.1", "cmd")
	sum := run.Summary()
	if !strings.Contains(sum, "root@192.0.2.1") || !strings.Contains(sum, "Queued") {
		t.Errorf("Summary missing target or status: %q", sum)
	}
}

func TestRun_DurationBeforeStart(t *testing.T) {
	run := NewRun("root@192.0.2.1", "cmd")
	if run.Duration() != 0 {
		t.Errorf("Duration before start = %v, want 0", run.Duration())
	}
}

func TestOutcome_Banner(t *testing.T) {
	ok := &Outcome{Status: StatusComplete, ExitCode: 0, Target: "root@192.0.2.1"}
	banner := strings.Join(ok.Banner(), "\n")
	if !strings.Contains(banner, "COMPLETED SUCCESSFULLY") {
		t.Errorf("Success banner wrong:\n%s", banner)
	}
	if !strings.Contains(banner, "Exit code: 0") || !strings.Contains(banner, "root@192.0.2.1") {
		t.Errorf("Banner missing exit code or target:\n%s", banner)
	}

	failed := &Outcome{Status: StatusFailed, ExitCode: 2, Target: "root@192.0.2.1"}
	banner = strings.Join(failed.Banner(), "\n")
	if !strings.Contains(banner, "PROVISIONING FAILED") || !strings.Contains(banner, "Exit code: 2") {
		t.Errorf("Failure banner wrong:\n%s", banner)
	}

	canceled := &Outcome{Status: StatusCanceled, ExitCode: -1, Target: "root@192.0.2.1"}
	banner = strings.Join(canceled.Banner(), "\n")
	if !strings.Contains(banner, "CANCELED") {
		t.Errorf("Canceled banner wrong:\n%s", banner)
	}
}
