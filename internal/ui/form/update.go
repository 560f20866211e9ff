// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// INIT AND UPDATE
// =============================================================================

// Init arms the background message sources: the signal poll and, when
// enabled, the cache watcher.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{shutdownTick()}
	if cmd := m.waitCacheChange(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// shutdownTick schedules the next poll of the latched signal flag.
func shutdownTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return shutdownTickMsg(t)
	})
}

// Update handles all messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case spinner.TickMsg:
		return m, m.spinner.Update(msg)

	case shutdownTickMsg:
		return m.handleShutdownTick()

	case preflightResultMsg:
		return m.handlePreflightResult(msg)

	case runStartedMsg:
		return m.handleRunStarted(msg)

	case runFailedMsg:
		return m.handleRunFailed(msg)

	case runEventMsg:
		return m.handleRunEvent(msg)

	case runStreamClosedMsg:
		return m.handleStreamClosed()

	case cacheChangedMsg:
		return m.handleCacheChanged()

	case testResultMsg:
		return m.handleTestResult(msg)
	}

	return m, nil
}

// handleResize propagates the new dimensions to every component.
func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.statusBar.SetWidth(msg.Width)
	m.help.SetSize(msg.Width, msg.Height)

	vw := msg.Width - 4
	if vw < 20 {
		vw = 20
	}
	vh := msg.Height - 8
	if vh < 5 {
		vh = 5
	}
	m.viewport.Width = vw
	m.viewport.Height = vh

	ew := msg.Width - 30
	if ew < 20 {
		ew = 20
	}
	m.editor.Width = ew

	m.syncViewport()
}

// handleShutdownTick reacts to SIGINT/SIGTERM latched outside the UI
// loop. A signal during a run cancels the run first; the next tick after
// the run winds down quits.
func (m *Model) handleShutdownTick() (tea.Model, tea.Cmd) {
	if !provision.ShutdownRequested() {
		return m, shutdownTick()
	}
	if m.phase == PhaseRunning {
		if m.runner.CancelCurrent() {
			m.setStatus("signal received, stopping the run", true)
		}
		return m, shutdownTick()
	}
	m.quitting = true
	return m, tea.Quit
}

// =============================================================================
// KEY DISPATCH
// =============================================================================

// handleKey routes key presses by phase and modal state.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The help overlay is modal: it swallows every key while open.
	if m.help.Visible() {
		switch msg.String() {
		case "?", "esc", "q":
			m.help.Hide()
			return m, nil
		}
		return m, m.help.Update(msg)
	}

	if m.phase == PhaseForm && m.editing {
		return m.handleEditingKey(msg)
	}

	if key.Matches(msg, m.keys.Help) && m.phase != PhaseRunning {
		m.help.Toggle()
		return m, nil
	}

	switch m.phase {
	case PhaseForm:
		return m.handleFormKey(msg)
	case PhasePreflight:
		return m.handlePreflightKey(msg)
	case PhaseRunning:
		return m.handleRunningKey(msg)
	case PhaseDone:
		return m.handleDoneKey(msg)
	}
	return m, nil
}

// handleFormKey drives navigation and mutation of the form.
func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextSection):
		m.sec = (m.sec + 1) % sectionCount
		m.focus = 0
		m.clampFocus()

	case key.Matches(msg, m.keys.PrevSection):
		m.sec = (m.sec + sectionCount - 1) % sectionCount
		m.focus = 0
		m.clampFocus()

	case key.Matches(msg, m.keys.NextField):
		m.moveFocus(1)

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)

	case key.Matches(msg, m.keys.Toggle):
		m.activateField(false)

	case key.Matches(msg, m.keys.Edit):
		return m, m.activateField(true)

	case key.Matches(msg, m.keys.Run):
		return m, m.requestRun()

	case key.Matches(msg, m.keys.Test):
		return m, tea.Batch(m.spinner.Start("Probing host"), m.startTest())
	}
	return m, nil
}

// activateField applies the primary action of the focused field. Space
// only flips switches; enter additionally opens text editors and fires
// actions.
func (m *Model) activateField(enter bool) tea.Cmd {
	f := m.currentField()
	switch f.kind {
	case fieldToggle:
		*f.flag = !*f.flag
		m.clampFocus()
		m.saveSettings()
		m.revalidate()

	case fieldChoice:
		f.set("")
		m.saveSettings()
		m.revalidate()

	case fieldText, fieldSecret:
		if enter {
			return m.startEdit(f)
		}

	case fieldAction:
		if !enter {
			return nil
		}
		switch f.id {
		case "run":
			return m.requestRun()
		case "test":
			return tea.Batch(m.spinner.Start("Probing host"), m.startTest())
		}
	}
	return nil
}

// startEdit opens the inline editor over the focused field.
func (m *Model) startEdit(f field) tea.Cmd {
	m.editing = true
	m.editor.SetValue(f.get())
	if f.kind == fieldSecret {
		m.editor.EchoMode = textinput.EchoPassword
	} else {
		m.editor.EchoMode = textinput.EchoNormal
	}
	m.editor.CursorEnd()
	return m.editor.Focus()
}

// handleEditingKey runs while the inline editor is open.
func (m *Model) handleEditingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.commitEdit()
		return m, nil
	case "esc":
		m.editing = false
		m.editor.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// commitEdit writes the editor value through the field setter and saves.
func (m *Model) commitEdit() {
	f := m.currentField()
	if f.set != nil {
		f.set(m.editor.Value())
	}
	m.editing = false
	m.editor.Blur()
	m.saveSettings()
	m.revalidate()
}

// handlePreflightKey lets the operator abort the checks.
func (m *Model) handlePreflightKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "ctrl+c":
		m.phase = PhaseForm
		m.spinner.Stop()
		m.setStatus("preflight aborted", false)
	}
	return m, nil
}

// handleRunningKey handles cancel and scrollback during a live run.
//
// USABILITY: plain q does not quit mid-run; losing the TUI while
// ansible rewrites a server must be a deliberate two-step.
func (m *Model) handleRunningKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.runner.CancelCurrent() {
			m.setStatus("canceling, waiting for ansible to stop", true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, nil

	case msg.String() == "q":
		m.setStatus("run in progress, ctrl+c cancels it first", true)
		return m, nil
	}

	// Manual scrolling detaches the viewport from the tail.
	switch msg.String() {
	case "up", "pgup", "home", "k":
		m.follow = false
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleDoneKey reviews the finished run.
func (m *Model) handleDoneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		// Back to the form for another round.
		m.phase = PhaseForm
		m.outcome = nil
		m.run = nil
		m.setStatus("", false)
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// BACKGROUND MESSAGE HANDLERS
// =============================================================================

// handlePreflightResult stores one check outcome and chains the next
// check, or resolves the whole preflight once the list is exhausted.
func (m *Model) handlePreflightResult(msg preflightResultMsg) (tea.Model, tea.Cmd) {
	// A stale result after an abort changes nothing.
	if m.phase != PhasePreflight {
		return m, nil
	}
	if msg.index < 0 || msg.index >= len(m.checks) {
		return m, nil
	}

	m.checks[msg.index] = msg.result
	m.currentCheck++

	if m.currentCheck < len(m.checks) {
		m.checks[m.currentCheck].Status = "checking"
		return m, m.runPreflight(m.currentCheck)
	}

	if fail, ok := m.preflightFailure(); ok {
		m.phase = PhaseForm
		m.spinner.Stop()
		if fail.Field != "" {
			m.focusField(fail.Field)
		}
		m.setStatus("preflight failed: "+fail.Message, true)
		return m, nil
	}

	m.spinner.SetMessage("Launching ansible-playbook")
	return m, m.startRun()
}

// handleRunStarted switches to the streaming view.
func (m *Model) handleRunStarted(msg runStartedMsg) (tea.Model, tea.Cmd) {
	m.run = msg.run
	m.events = msg.events
	m.agent = msg.agent
	m.phase = PhaseRunning
	m.lines = nil
	m.follow = true
	m.outcome = nil
	m.setStatus("", false)
	m.viewport.SetContent("")
	m.viewport.GotoTop()

	m.spinner.ShowTimer(true)
	return m, tea.Batch(
		m.spinner.Start("Provisioning "+msg.run.Target),
		waitForEvent(msg.events),
	)
}

// handleRunFailed lands the cursor on the offending field when the
// launch failure names one.
func (m *Model) handleRunFailed(msg runFailedMsg) (tea.Model, tea.Cmd) {
	m.phase = PhaseForm
	m.spinner.Stop()
	if msg.field != "" {
		m.focusField(msg.field)
	}
	m.setStatus(msg.err.Error(), true)
	return m, nil
}

// handleRunEvent appends streamed output and re-arms the channel drain.
func (m *Model) handleRunEvent(msg runEventMsg) (tea.Model, tea.Cmd) {
	switch msg.ev.Kind {
	case provision.EventLine:
		m.appendLine(m.styleEventLine(msg.ev))
		m.syncViewport()
	case provision.EventDone:
		m.finishRun(msg.ev.Outcome)
	}
	if m.events == nil {
		return m, nil
	}
	return m, waitForEvent(m.events)
}

// handleStreamClosed finalizes state once the event channel drains. The
// done event normally arrives first, making this a no-op.
func (m *Model) handleStreamClosed() (tea.Model, tea.Cmd) {
	m.events = nil
	if m.phase == PhaseRunning {
		m.finishRun(nil)
		m.setStatus("output stream ended unexpectedly", true)
	}
	return m, nil
}

// handleCacheChanged reloads the form when another process rewrote the
// cache. Self-inflicted events (our own saves) and mid-edit reloads are
// skipped so the watcher never fights the operator.
func (m *Model) handleCacheChanged() (tea.Model, tea.Cmd) {
	rearm := m.waitCacheChange()

	if m.phase != PhaseForm || m.editing {
		return m, rearm
	}
	if time.Since(m.lastSave) < 2*time.Second {
		return m, rearm
	}

	s, err := settings.Load()
	if err != nil {
		m.setStatus("cache changed on disk but is unreadable", true)
		return m, rearm
	}
	s.Normalize()
	m.settings = s
	m.clampFocus()
	m.revalidate()
	m.setStatus("settings reloaded from cache", false)
	return m, rearm
}

// handleTestResult reports the standalone connection probe.
func (m *Model) handleTestResult(msg testResultMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	if msg.err != nil {
		m.setStatus("probe failed: "+msg.err.Error(), true)
		return m, nil
	}
	if msg.result.Online {
		m.setStatus(fmt.Sprintf("host answered in %s", msg.result.Duration.Round(time.Millisecond)), false)
	} else {
		m.setStatus("host did not answer", true)
	}
	return m, nil
}

// syncViewport pushes the output buffer into the viewport, keeping the
// tail in view while follow is on.
func (m *Model) syncViewport() {
	if len(m.lines) == 0 {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}
