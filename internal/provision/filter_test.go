// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"testing"

	"github.com/jeranaias/rigup/internal/config"
)

func TestFilter_Clean(t *testing.T) {
	f := Filter{HideTiming: true, PrefixStderr: true}

	tests := []struct {
		name   string
		raw    string
		stderr bool
		want   string
		keep   bool
	}{
		{
			name: "play header with asterisks stays",
			raw:  "PLAY [all] *********************************************************",
			want: "PLAY [all] *********************************************************",
			keep: true,
		},
		{
			name: "task header with asterisks stays",
			raw:  "TASK [docker : Install docker-ce] *********************************",
			want: "TASK [docker : Install docker-ce] *********************************",
			keep: true,
		},
		{
			name: "timing rule is dropped",
			raw:  "Tuesday 01 January 2030  00:00:00 +0000 (0:00:00.042) *******",
			keep: false,
		},
		{
			name: "bare asterisk rule is dropped",
			raw:  "***************************************************************",
			keep: false,
		},
		{
			name: "blank line is dropped",
			raw:  "   ",
			keep: false,
		},
		{
			name: "ansi color codes are stripped",
			raw:  "\x1b[0;32mok: [192.0.2.1]\x1b[0m",
			want: "ok: [192.0.2.1]",
			keep: true,
		},
		{
			name:   "stderr gets the prefix",
			raw:    "fatal: [192.0.2.1]: UNREACHABLE!",
			stderr: true,
			want:   "[STDERR] fatal: [192.0.2.1]: UNREACHABLE!",
			keep:   true,
		},
		{
			name:   "timing filter does not apply to stderr",
			raw:    "*******",
			stderr: true,
			want:   "[STDERR] *******",
			keep:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, keep := f.Clean(tc.raw, tc.stderr)
			if keep != tc.keep {
				t.Fatalf("Clean(%q) keep = %v, want %v", tc.raw, keep, tc.keep)
			}
			if keep && got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestFilter_TimingShownWhenConfigured(t *testing.T) {
	f := Filter{HideTiming: false, PrefixStderr: true}

	timing := "Tuesday 01 January 2030  00:00:00 +0000 (0:00:00.042) *******"
	got, keep := f.Clean(timing, false)
	if !keep || got != timing {
		t.Errorf("timing line should survive with HideTiming off, got %q keep=%v", got, keep)
	}
}

func TestFilter_NoStderrPrefix(t *testing.T) {
	f := Filter{HideTiming: true, PrefixStderr: false}

	got, keep := f.Clean("some warning", true)
	if !keep || got != "some warning" {
		t.Errorf("stderr line should pass through unprefixed, got %q keep=%v", got, keep)
	}
}

func TestNewFilter(t *testing.T) {
	cfg := config.Default()
	cfg.Run.HideTimingLines = true
	cfg.Run.PrefixStderr = false

	f := NewFilter(cfg)
	if !f.HideTiming || f.PrefixStderr {
		t.Errorf("NewFilter = %+v, want HideTiming on and PrefixStderr off", f)
	}
}
