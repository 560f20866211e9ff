// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"strings"

	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// OUTPUT FILTER
// =============================================================================

// stderrPrefix marks diagnostic lines in the merged stream.
const stderrPrefix = "[STDERR] "

// Filter decides what a raw child line contributes to the visible
// stream.
type Filter struct {
	// HideTiming drops ansible's asterisk timing rules that are not
	// TASK or PLAY headers.
	HideTiming bool
	// PrefixStderr tags stderr lines so they are tellable apart in the
	// merged stream.
	PrefixStderr bool
}

// NewFilter builds the filter from the run config.
func NewFilter(cfg *config.Config) Filter {
	return Filter{
		HideTiming:   cfg.Run.HideTimingLines,
		PrefixStderr: cfg.Run.PrefixStderr,
	}
}

// Clean strips ANSI sequences and decides whether the line survives.
// Blank lines never do; ansible emits them constantly and the stream is
// denser without them.
func (f Filter) Clean(raw string, stderr bool) (string, bool) {
	clean := util.StripANSI(raw)
	if strings.TrimSpace(clean) == "" {
		return "", false
	}
	if !stderr && f.HideTiming && timingOnly(clean) {
		return "", false
	}
	if stderr && f.PrefixStderr {
		clean = stderrPrefix + clean
	}
	return clean, true
}

// timingOnly matches the asterisk rules ansible prints around timing
// output. TASK and PLAY headers carry the same asterisks but also the
// keyword, and those stay.
func timingOnly(s string) bool {
	return strings.Contains(s, "*******") && !strings.Contains(s, "TASK") && !strings.Contains(s, "PLAY")
}
