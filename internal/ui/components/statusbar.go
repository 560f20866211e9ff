// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/rigup/internal/ui/styles"
	"github.com/jeranaias/rigup/internal/util"
)

// KeyHint is a single keyboard shortcut shown in the status bar.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom line of the TUI: current phase, the
// provisioning target, elapsed time during a run and keyboard hints.
// The layout degrades gracefully as the terminal narrows.
type StatusBar struct {
	theme *styles.Theme

	Width   int
	Phase   string
	Target  string
	Elapsed string
	Message string
	IsError bool
	Hints   []KeyHint
}

// NewStatusBar creates a status bar bound to the theme.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme}
}

// SetWidth updates the bar width for responsive rendering.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar for the current width.
func (s *StatusBar) View() string {
	var content string
	switch {
	case s.Width < 60:
		content = s.viewNarrow()
	case s.Width < 100:
		content = s.viewMedium()
	default:
		content = s.viewWide()
	}

	return s.theme.StatusBar.Width(s.Width).Render(content)
}

// viewNarrow shows only the phase and the most important hints.
func (s *StatusBar) viewNarrow() string {
	parts := []string{s.theme.StatusPhase.Render(s.Phase)}
	if msg := s.renderMessage(); msg != "" {
		parts = append(parts, msg)
	} else {
		parts = append(parts, s.renderHints(2))
	}
	return s.join(parts)
}

// viewMedium adds the target and a few more hints.
func (s *StatusBar) viewMedium() string {
	parts := []string{s.theme.StatusPhase.Render(s.Phase)}
	if s.Target != "" {
		parts = append(parts, s.theme.Target.Render(s.Target))
	}
	if s.Elapsed != "" {
		parts = append(parts, s.Elapsed)
	}
	if msg := s.renderMessage(); msg != "" {
		parts = append(parts, msg)
	}
	parts = append(parts, s.renderHints(4))
	return s.join(parts)
}

// viewWide shows everything.
func (s *StatusBar) viewWide() string {
	parts := []string{s.theme.StatusPhase.Render(s.Phase)}
	if s.Target != "" {
		parts = append(parts, s.theme.Target.Render(s.Target))
	}
	if s.Elapsed != "" {
		parts = append(parts, s.Elapsed)
	}
	if msg := s.renderMessage(); msg != "" {
		parts = append(parts, msg)
	}
	parts = append(parts, s.renderHints(len(s.Hints)))
	return s.join(parts)
}

func (s *StatusBar) renderMessage() string {
	if s.Message == "" {
		return ""
	}
	msg := util.TruncateWidth(s.Message, s.Width/2)
	if s.IsError {
		return s.theme.ErrorText.Render(msg)
	}
	return msg
}

// renderHints renders up to max key hints as "key desc" pairs.
func (s *StatusBar) renderHints(max int) string {
	if max > len(s.Hints) {
		max = len(s.Hints)
	}
	rendered := make([]string, 0, max)
	for _, h := range s.Hints[:max] {
		rendered = append(rendered,
			s.theme.ShortcutKey.Render(h.Key)+" "+s.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(rendered, "  ")
}

func (s *StatusBar) join(parts []string) string {
	sep := s.theme.Separator.Render(" | ")
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}
