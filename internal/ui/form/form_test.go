// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/provision"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/ui/styles"
)

// newTestModel builds a model against an isolated home directory so
// cache saves never touch the real one.
func newTestModel(t *testing.T) *Model {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := config.Default()
	cfg.UI.WatchCache = false

	m := New(styles.NewTheme("dark"), cfg)
	m.handleResize(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ===== CONSTRUCTION =====

func TestNewStartsInFormPhase(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, PhaseForm, m.CurrentPhase())
	require.NotNil(t, m.Settings())
	// Empty home means defaults.
	assert.Equal(t, "root", m.Settings().SSHUser)
}

func TestNewSurvivesCorruptCache(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.UI.WatchCache = false

	path, err := settings.CachePath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	m := New(styles.NewTheme("dark"), cfg)
	require.NotNil(t, m.Settings())
	assert.Equal(t, "root", m.Settings().SSHUser)
	assert.NotEmpty(t, m.statusMsg)
}

// ===== SECTION AND FIELD VISIBILITY =====

func TestConnectionFieldsGateOnCreateUser(t *testing.T) {
	s := settings.Default()
	s.CreateUser = false
	ids := fieldIDs(fieldsFor(sectionConnection, s))
	assert.NotContains(t, ids, "added_user")

	s.CreateUser = true
	ids = fieldIDs(fieldsFor(sectionConnection, s))
	assert.Contains(t, ids, "added_user")
	assert.Contains(t, ids, "user_password")
}

func TestStackFieldsGateOnLEMPAndDevTools(t *testing.T) {
	s := settings.Default()
	s.LEMP = false
	s.DevTools = false
	ids := fieldIDs(fieldsFor(sectionStack, s))
	assert.NotContains(t, ids, "wordpress")
	assert.NotContains(t, ids, "tool_tmux")

	s.LEMP = true
	s.DevTools = true
	fields := fieldsFor(sectionStack, s)
	ids = fieldIDs(fields)
	assert.Contains(t, ids, "wordpress")
	assert.Contains(t, ids, "certbot")
	assert.Contains(t, ids, "tool_tmux")

	// Base switches plus the full tool list.
	_, total := s.ToolCount()
	assert.Len(t, fields, 7+total)
}

func TestMaintenanceFieldsGateOnPeriodicReboot(t *testing.T) {
	s := settings.Default()
	s.PeriodicReboot = false
	assert.NotContains(t, fieldIDs(fieldsFor(sectionMaintenance, s)), "reboot_hour")

	s.PeriodicReboot = true
	assert.Contains(t, fieldIDs(fieldsFor(sectionMaintenance, s)), "reboot_hour")
}

func TestReviewFieldsEndWithActions(t *testing.T) {
	s := settings.Default()
	fields := fieldsFor(sectionReview, s)
	require.NotEmpty(t, fields)
	assert.Equal(t, "run", fields[len(fields)-1].id)
	assert.False(t, fields[0].editable(), "review should open with read-only rows")
}

func fieldIDs(fields []field) []string {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.id
	}
	return ids
}

// ===== NAVIGATION =====

func TestSectionNavigationWraps(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < int(sectionCount); i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, sectionConnection, m.sec)

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, sectionReview, m.sec)
}

func TestMoveFocusSkipsReadOnlyRows(t *testing.T) {
	m := newTestModel(t)
	m.sec = sectionReview
	m.focus = 0
	m.clampFocus()

	f := m.currentField()
	assert.True(t, f.editable())
	assert.Equal(t, fieldAction, f.kind)
}

func TestMoveFocusWrapsWithinSection(t *testing.T) {
	m := newTestModel(t)
	m.sec = sectionAccess
	m.focus = 0

	n := len(m.fields())
	for i := 0; i < n; i++ {
		m.moveFocus(1)
	}
	assert.Equal(t, 0, m.focus)

	m.moveFocus(-1)
	assert.Equal(t, n-1, m.focus)
}

// ===== MUTATION =====

func TestSpaceFlipsToggleAndSaves(t *testing.T) {
	m := newTestModel(t)
	m.sec = sectionStack
	m.focus = indexOf(t, m.fields(), "docker")

	before := m.settings.Docker
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, !before, m.settings.Docker)

	// The flip must have hit the cache, not just memory.
	reloaded, err := settings.Load()
	require.NoError(t, err)
	assert.Equal(t, !before, reloaded.Docker)
}

func TestEnterEditsTextField(t *testing.T) {
	m := newTestModel(t)
	m.sec = sectionConnection
	m.focus = indexOf(t, m.fields(), "ip_address")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.editing)

	m.Update(keyRunes("192.0.2.5"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.editing)
	assert.Equal(t, "192.0.2.5", m.settings.IPAddress)
}

func TestEscCancelsEdit(t *testing.T) {
	m := newTestModel(t)
	m.sec = sectionConnection
	m.focus = indexOf(t, m.fields(), "hostname")
	m.settings.Hostname = "web1"

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("scratch"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.editing)
	assert.Equal(t, "web1", m.settings.Hostname)
}

func TestNextRebootChoiceCycles(t *testing.T) {
	choices := settings.RebootScheduleChoices()
	got := choices[0]
	for i := 0; i < len(choices); i++ {
		got = nextRebootChoice(got)
	}
	assert.Equal(t, choices[0], got)

	// Unknown values restart the cycle.
	assert.Equal(t, choices[0], nextRebootChoice("bogus"))
}

func indexOf(t *testing.T, fields []field, id string) int {
	t.Helper()
	for i, f := range fields {
		if f.id == id {
			return i
		}
	}
	t.Fatalf("field %q not found", id)
	return -1
}

// ===== RUN FLOW =====

func TestRequestRunBlocksOnValidation(t *testing.T) {
	m := newTestModel(t)
	m.settings.IPAddress = ""

	cmd := m.requestRun()
	assert.Nil(t, cmd)
	assert.Equal(t, PhaseForm, m.phase)
	assert.Equal(t, sectionConnection, m.sec)
	assert.Equal(t, "ip_address", m.currentField().id)
	assert.True(t, m.statusErr)
}

func TestRequestRunEntersPreflight(t *testing.T) {
	m := newTestModel(t)
	m.settings.IPAddress = "192.0.2.5"
	m.settings.SSHUser = "root"
	m.settings.SSHKeyPath = "~/.ssh/id_ed25519"

	cmd := m.requestRun()
	require.NotNil(t, cmd)
	assert.Equal(t, PhasePreflight, m.phase)
	require.Len(t, m.checks, len(preflightNames))
	assert.Equal(t, "checking", m.checks[0].Status)
}

func TestPreflightChainsAndFailureReturnsToForm(t *testing.T) {
	m := newTestModel(t)
	m.settings.IPAddress = "192.0.2.5"
	m.settings.SSHKeyPath = "~/.ssh/id_ed25519"
	m.requestRun()

	// First check passes and arms the second.
	_, cmd := m.Update(preflightResultMsg{index: 0, result: preflightResult{Status: "pass"}})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.currentCheck)
	assert.Equal(t, "checking", m.checks[1].Status)

	// Walk the rest with one failure in the middle.
	m.Update(preflightResultMsg{index: 1, result: preflightResult{Status: "pass"}})
	m.Update(preflightResultMsg{index: 2, result: preflightResult{
		Status:  "fail",
		Message: "key is encrypted and no passphrase is set",
		Field:   "ssh_key_passphrase",
	}})
	m.Update(preflightResultMsg{index: 3, result: preflightResult{Status: "pass"}})
	m.Update(preflightResultMsg{index: 4, result: preflightResult{Status: "warn"}})

	assert.Equal(t, PhaseForm, m.phase)
	assert.Equal(t, "ssh_key_passphrase", m.currentField().id)
	assert.Contains(t, m.statusMsg, "preflight failed")
}

func TestStalePreflightResultIgnoredAfterAbort(t *testing.T) {
	m := newTestModel(t)
	m.settings.IPAddress = "192.0.2.5"
	m.settings.SSHKeyPath = "~/.ssh/id_ed25519"
	m.requestRun()

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, PhaseForm, m.phase)

	m.Update(preflightResultMsg{index: 0, result: preflightResult{Status: "pass"}})
	assert.Equal(t, PhaseForm, m.phase)
	assert.Equal(t, 0, m.currentCheck)
}

func TestRunFailedFocusesBlamedField(t *testing.T) {
	m := newTestModel(t)
	m.phase = PhasePreflight

	m.Update(runFailedMsg{err: errors.New("ssh key passphrase is incorrect"), field: "ssh_key_passphrase"})

	assert.Equal(t, PhaseForm, m.phase)
	assert.Equal(t, sectionConnection, m.sec)
	assert.Equal(t, "ssh_key_passphrase", m.currentField().id)
	assert.True(t, m.statusErr)
}

func TestRunEventsStreamIntoBuffer(t *testing.T) {
	m := newTestModel(t)
	events := make(chan provision.Event)
	m.phase = PhaseRunning
	m.events = events

	_, cmd := m.Update(runEventMsg{ev: provision.Event{Kind: provision.EventLine, Line: "TASK [docker]"}})
	require.NotNil(t, cmd, "line events must re-arm the drain")
	require.Len(t, m.lines, 1)
	assert.Contains(t, m.lines[0], "TASK [docker]")

	outcome := &provision.Outcome{
		Status: provision.StatusComplete,
		Target: "root@192.0.2.5",
	}
	m.Update(runEventMsg{ev: provision.Event{Kind: provision.EventDone, Outcome: outcome}})

	assert.Equal(t, PhaseDone, m.phase)
	assert.Equal(t, outcome, m.outcome)
	assert.Greater(t, len(m.lines), 1, "the outcome banner joins the scrollback")
}

func TestStreamClosedWithoutOutcome(t *testing.T) {
	m := newTestModel(t)
	m.phase = PhaseRunning

	m.Update(runStreamClosedMsg{})
	assert.Equal(t, PhaseDone, m.phase)
	assert.True(t, m.statusErr)
}

func TestOutputBufferStaysBounded(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < maxOutputLines+500; i++ {
		m.appendLine("line")
	}
	assert.Len(t, m.lines, maxOutputLines)
}

// ===== CACHE RELOAD =====

func TestCacheChangedReloadsSettings(t *testing.T) {
	m := newTestModel(t)

	other := settings.Default()
	other.IPAddress = "198.51.100.9"
	require.NoError(t, other.Save())

	m.Update(cacheChangedMsg{})
	assert.Equal(t, "198.51.100.9", m.settings.IPAddress)
}

func TestCacheChangedSkippedWhileEditing(t *testing.T) {
	m := newTestModel(t)
	m.editing = true

	other := settings.Default()
	other.IPAddress = "198.51.100.9"
	require.NoError(t, other.Save())

	m.Update(cacheChangedMsg{})
	assert.NotEqual(t, "198.51.100.9", m.settings.IPAddress)
}

// ===== VIEW SMOKE TESTS =====

func TestViewRendersEachPhase(t *testing.T) {
	m := newTestModel(t)

	assert.Contains(t, m.View(), "Connection")

	m.settings.IPAddress = "192.0.2.5"
	m.settings.SSHKeyPath = "~/.ssh/id_ed25519"
	m.requestRun()
	assert.Contains(t, m.View(), "Preflight")

	m.phase = PhaseRunning
	m.appendLine("PLAY [all]")
	m.syncViewport()
	assert.NotEmpty(t, m.View())

	m.finishRun(&provision.Outcome{Status: provision.StatusFailed, ExitCode: 2, Target: "root@192.0.2.5"})
	assert.Equal(t, PhaseDone, m.phase)
	assert.NotEmpty(t, m.View())
}

func TestHelpOverlayIsModal(t *testing.T) {
	m := newTestModel(t)

	m.Update(keyRunes("?"))
	assert.True(t, m.help.Visible())

	// Keys that would normally mutate the form are swallowed.
	before := m.settings.Fail2ban
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, before, m.settings.Fail2ban)

	m.Update(keyRunes("?"))
	assert.False(t, m.help.Visible())
}

func TestQuitKeyQuits(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
}
