// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable TUI components for rigup.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigup/internal/ui/styles"
)

// Spinner wraps the bubbles spinner with elapsed-time tracking for
// long operations like preflight probes and playbook runs.
//
// ACCESSIBILITY: frames are plain ASCII so the spinner renders the same
// in every terminal and screen-reader passthrough.
type Spinner struct {
	spinner   spinner.Model
	theme     *styles.Theme
	active    bool
	startTime time.Time
	message   string
	showTimer bool
}

// NewSpinner creates a spinner styled for the current theme.
func NewSpinner(theme *styles.Theme) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = theme.Spinner

	return Spinner{
		spinner: s,
		theme:   theme,
	}
}

// Start activates the spinner with a message and returns the tick command
// that drives the animation.
func (s *Spinner) Start(message string) tea.Cmd {
	s.active = true
	s.message = message
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop halts the animation.
func (s *Spinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is currently animating.
func (s *Spinner) Active() bool {
	return s.active
}

// SetMessage updates the text shown next to the spinner frame.
func (s *Spinner) SetMessage(message string) {
	s.message = message
}

// ShowTimer toggles the elapsed-time suffix.
func (s *Spinner) ShowTimer(show bool) {
	s.showTimer = show
}

// Elapsed returns how long the spinner has been running.
func (s *Spinner) Elapsed() time.Duration {
	if !s.active {
		return 0
	}
	return time.Since(s.startTime)
}

// Update advances the animation. Ticks are ignored while inactive so a
// stopped spinner does not keep scheduling frames.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	if !s.active {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders the spinner frame, message and optional elapsed time.
func (s *Spinner) View() string {
	if !s.active {
		return ""
	}
	out := s.spinner.View()
	if s.message != "" {
		out += " " + s.message
	}
	if s.showTimer {
		out += s.theme.FieldHint.Render(fmt.Sprintf(" (%s)", formatElapsed(s.Elapsed())))
	}
	return out
}

// formatElapsed renders a duration as a compact human-readable string.
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, sec)
}
