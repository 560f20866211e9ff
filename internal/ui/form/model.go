// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package form provides the provisioning form view for the rigup TUI.
package form

import (
	_ "embed"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/sshauth"
	"github.com/jeranaias/rigup/internal/ui/components"
	"github.com/jeranaias/rigup/internal/ui/styles"
)

//go:embed GUIDE.md
var guideMarkdown string

// maxOutputLines caps the in-memory playbook output. The full transcript
// always lands in the run log regardless.
const maxOutputLines = 5000

// Phase is the top-level state of the TUI.
type Phase int

const (
	// PhaseForm collects provisioning options.
	PhaseForm Phase = iota
	// PhasePreflight runs the environment checks before a run.
	PhasePreflight
	// PhaseRunning streams playbook output.
	PhaseRunning
	// PhaseDone shows the outcome banner until the operator quits.
	PhaseDone
)

// String returns the phase label for the status bar.
func (p Phase) String() string {
	switch p {
	case PhaseForm:
		return "FORM"
	case PhasePreflight:
		return "PREFLIGHT"
	case PhaseRunning:
		return "RUNNING"
	case PhaseDone:
		return "DONE"
	default:
		return "?"
	}
}

// Model is the Bubble Tea model for the provisioning form.
type Model struct {
	// Core dependencies
	theme *styles.Theme
	cfg   *config.Config
	keys  KeyMap

	// Form state
	settings  *settings.Settings
	phase     Phase
	sec       section
	focus     int
	editing   bool
	editor    textinput.Model
	problems  settings.Problems
	statusMsg string
	statusErr bool
	lastSave  time.Time

	// Layout
	width     int
	height    int
	viewport  viewport.Model
	spinner   components.Spinner
	statusBar components.StatusBar
	help      components.HelpOverlay

	// Preflight state
	checks       []preflightResult
	currentCheck int

	// Run state
	runner  *provision.Runner
	run     *provision.Run
	events  <-chan provision.Event
	agent   *sshauth.Agent
	outcome *provision.Outcome
	lines   []string
	follow  bool

	// Cache watcher
	watcher *cacheWatcher

	quitting bool
}

// New creates the form model. A missing or corrupt cache starts the form
// from defaults instead of failing; the operator sees why in the status
// bar.
func New(theme *styles.Theme, cfg *config.Config) *Model {
	m := &Model{
		theme:  theme,
		cfg:    cfg,
		keys:   DefaultKeyMap(),
		phase:  PhaseForm,
		follow: true,
		runner: provision.NewRunner(cfg),
	}

	s, err := settings.Load()
	if err != nil {
		s = settings.Default()
		m.setStatus("cache unreadable, starting from defaults", true)
	}
	s.Normalize()
	m.settings = s

	ti := textinput.New()
	ti.CharLimit = 256
	m.editor = ti

	m.viewport = viewport.New(80, 20)
	m.spinner = components.NewSpinner(theme)
	m.statusBar = components.NewStatusBar(theme)
	m.help = components.NewHelpOverlay(theme, guideMarkdown)

	if cfg.UI.WatchCache {
		if w, err := newCacheWatcher(); err == nil {
			m.watcher = w
		}
	}

	return m
}

// Shutdown releases everything the model holds onto. Main calls this
// after the program loop returns, so a half-finished run is canceled and
// the ssh-agent never outlives the process.
func (m *Model) Shutdown() {
	if m.runner != nil {
		m.runner.CancelCurrent()
	}
	if m.agent != nil {
		m.agent.Kill()
		m.agent = nil
	}
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
}

// Settings exposes the live form state, mostly for tests.
func (m *Model) Settings() *settings.Settings {
	return m.settings
}

// CurrentPhase returns the top-level state, mostly for tests.
func (m *Model) CurrentPhase() Phase {
	return m.phase
}

// fields returns the visible fields of the active section.
func (m *Model) fields() []field {
	return fieldsFor(m.sec, m.settings)
}

// clampFocus keeps the cursor on an editable field after the field list
// changed shape, walking forward then backward for the nearest stop.
func (m *Model) clampFocus() {
	fields := m.fields()
	if len(fields) == 0 {
		m.focus = 0
		return
	}
	if m.focus >= len(fields) {
		m.focus = len(fields) - 1
	}
	if m.focus < 0 {
		m.focus = 0
	}
	if fields[m.focus].editable() {
		return
	}
	for i := m.focus + 1; i < len(fields); i++ {
		if fields[i].editable() {
			m.focus = i
			return
		}
	}
	for i := m.focus - 1; i >= 0; i-- {
		if fields[i].editable() {
			m.focus = i
			return
		}
	}
}

// moveFocus advances the cursor by delta, skipping read-only rows and
// wrapping at either end.
func (m *Model) moveFocus(delta int) {
	fields := m.fields()
	if len(fields) == 0 {
		return
	}
	idx := m.focus
	for range fields {
		idx += delta
		if idx >= len(fields) {
			idx = 0
		}
		if idx < 0 {
			idx = len(fields) - 1
		}
		if fields[idx].editable() {
			m.focus = idx
			return
		}
	}
}

// focusField jumps to the field with the given id, switching sections
// when needed. Used to land the cursor on the field a failed run blamed.
func (m *Model) focusField(id string) {
	for sec := section(0); sec < sectionCount; sec++ {
		for i, f := range fieldsFor(sec, m.settings) {
			if f.id == id && f.editable() {
				m.sec = sec
				m.focus = i
				return
			}
		}
	}
}

// currentField returns the focused field, or a zero field when the
// section is empty.
func (m *Model) currentField() field {
	fields := m.fields()
	if m.focus < 0 || m.focus >= len(fields) {
		return field{}
	}
	return fields[m.focus]
}

// saveSettings persists the cache after every mutation, so a crash or
// quit never loses form state. Save failures surface in the status bar
// but do not block editing.
func (m *Model) saveSettings() {
	if err := m.settings.Save(); err != nil {
		m.setStatus("save failed: "+err.Error(), true)
		return
	}
	m.lastSave = time.Now()
}

// setStatus updates the transient status bar message.
func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

// revalidate refreshes the problem list shown in the form and review.
func (m *Model) revalidate() {
	m.problems = m.settings.Validate()
}

// appendLine adds one output line, trimming the buffer once it exceeds
// the cap so week-long runs cannot grow memory without bound.
func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxOutputLines {
		m.lines = m.lines[len(m.lines)-maxOutputLines:]
	}
}
