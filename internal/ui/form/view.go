// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/rigup/internal/ui/components"
	"github.com/jeranaias/rigup/internal/ui/styles"
	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen for the current phase.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.help.Visible() {
		return m.help.View()
	}

	var body string
	switch m.phase {
	case PhaseForm:
		body = m.viewForm()
	case PhasePreflight:
		body = m.viewPreflight()
	case PhaseRunning:
		body = m.viewRunning()
	case PhaseDone:
		body = m.viewDone()
	}

	return body + "\n" + m.viewStatusBar()
}

// renderHeader draws the title line with the provisioning target.
func (m *Model) renderHeader() string {
	title := m.theme.Title.Render("rigup")
	sub := m.theme.Subtitle.Render("server provisioning")
	line := "  " + title + "  " + sub
	if m.settings.IPAddress != "" {
		line += "  " + m.theme.Target.Render(m.settings.Target())
	}
	return line + "\n"
}

// =============================================================================
// FORM PHASE
// =============================================================================

func (m *Model) viewForm() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderFields())
	b.WriteString(m.renderProblems())
	return b.String()
}

// renderTabs draws the section strip, collapsing to a counter when the
// terminal is too narrow for all six titles.
func (m *Model) renderTabs() string {
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		label := fmt.Sprintf("Section %d/%d: %s", int(m.sec)+1, int(sectionCount), m.sec)
		return "  " + m.theme.SectionTabActive.Render(label)
	}

	tabs := make([]string, 0, sectionCount)
	for sec := section(0); sec < sectionCount; sec++ {
		if sec == m.sec {
			tabs = append(tabs, m.theme.SectionTabActive.Render(sec.String()))
		} else {
			tabs = append(tabs, m.theme.SectionTab.Render(sec.String()))
		}
	}
	return "  " + strings.Join(tabs, " ")
}

// renderFields draws the active section's rows, windowed around the
// cursor so long sections fit small terminals.
func (m *Model) renderFields() string {
	fields := m.fields()
	if len(fields) == 0 {
		return ""
	}

	visible := m.height - 12
	if visible < 5 {
		visible = 5
	}

	start, end := 0, len(fields)
	if len(fields) > visible {
		start = m.focus - visible/2
		if start < 0 {
			start = 0
		}
		end = start + visible
		if end > len(fields) {
			end = len(fields)
			start = end - visible
		}
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(m.theme.FieldHint.Render(fmt.Sprintf("    ... %d more above", start)))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		b.WriteString(m.renderField(fields[i], i == m.focus))
		b.WriteString("\n")
	}
	if end < len(fields) {
		b.WriteString(m.theme.FieldHint.Render(fmt.Sprintf("    ... %d more below", len(fields)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderField draws one row: cursor, label, value, and the focused
// field's hint.
func (m *Model) renderField(f field, focused bool) string {
	cursor := "  "
	if focused {
		cursor = m.theme.FieldFocused.Render("> ")
	}
	indent := ""
	if f.indent {
		indent = "  "
	}

	label := f.label
	if focused {
		label = m.theme.FieldFocused.Render(label)
	} else if f.kind == fieldInfo {
		label = m.theme.FieldDisabled.Render(label)
	} else {
		label = m.theme.FieldLabel.Render(label)
	}

	// The inline editor replaces the value while the field is edited.
	if focused && m.editing {
		return fmt.Sprintf("  %s%s%s %s", cursor, indent, label, m.editor.View())
	}

	value := m.renderFieldValue(f)
	row := fmt.Sprintf("  %s%s%s %s", cursor, indent, label, value)

	if focused && f.hint != "" {
		row += "  " + m.theme.FieldHint.Render("("+f.hint+")")
	}
	return row
}

// renderFieldValue formats the value part by field kind.
func (m *Model) renderFieldValue(f field) string {
	switch f.kind {
	case fieldToggle:
		if *f.flag {
			return m.theme.ToggleEnabled.Render(styles.ToggleOn)
		}
		return m.theme.ToggleDisabled.Render(styles.ToggleOff)

	case fieldSecret:
		if f.get() == "" {
			return m.theme.FieldDisabled.Render("(not set)")
		}
		return m.theme.FieldSecret.Render("********")

	case fieldChoice:
		return m.theme.FieldValue.Render("< " + f.get() + " >")

	case fieldAction:
		return ""

	case fieldInfo:
		return m.theme.FieldDisabled.Render(f.get())

	default:
		v := f.get()
		if v == "" {
			return m.theme.FieldDisabled.Render("(not set)")
		}
		return m.theme.FieldValue.Render(util.TruncateWidth(v, m.width-30))
	}
}

// renderProblems lists validation findings under the form.
func (m *Model) renderProblems() string {
	if len(m.problems) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, p := range m.problems.Errors() {
		b.WriteString("  " + m.theme.ProblemError.Render(styles.StatusIndicators.Error+" "+p.Message))
		b.WriteString("\n")
	}
	for _, p := range m.problems.Warnings() {
		b.WriteString("  " + m.theme.ProblemWarning.Render(styles.StatusIndicators.Warning+" "+p.Message))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// PREFLIGHT PHASE
// =============================================================================

func (m *Model) viewPreflight() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString("  " + m.theme.Title.Render("Preflight") + "\n\n")

	for idx, check := range m.checks {
		var icon string
		switch check.Status {
		case "checking":
			if idx == m.currentCheck {
				icon = m.spinner.View()
			} else {
				icon = styles.StatusIndicators.Pending
			}
		case "pass":
			icon = m.theme.CheckPass.Render(styles.StatusIndicators.Success)
		case "warn":
			icon = m.theme.CheckWarn.Render(styles.StatusIndicators.Warning)
		case "fail":
			icon = m.theme.CheckFail.Render(styles.StatusIndicators.Error)
		default:
			icon = styles.StatusIndicators.Pending
		}

		b.WriteString(fmt.Sprintf("  %s %s", icon, check.Name))
		if check.Message != "" && check.Status != "pending" && check.Status != "checking" {
			b.WriteString(m.theme.FieldHint.Render(" - " + check.Message))
		}
		b.WriteString("\n")

		if check.Fix != "" {
			b.WriteString(m.theme.CheckFix.Render("      -> " + check.Fix))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// =============================================================================
// RUNNING PHASE
// =============================================================================

func (m *Model) viewRunning() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())

	b.WriteString("  " + m.spinner.View())
	if !m.follow {
		b.WriteString("  " + m.theme.FieldHint.Render("(scrollback, f to follow)"))
	}
	b.WriteString("\n")

	b.WriteString(m.theme.OutputPane.Width(m.viewport.Width).Render(m.viewport.View()))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// DONE PHASE
// =============================================================================

func (m *Model) viewDone() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())

	if m.outcome != nil {
		style := m.theme.BannerFail
		icon := styles.StatusIndicators.Error
		if m.outcome.Success() {
			style = m.theme.BannerOK
			icon = styles.StatusIndicators.Success
		}
		summary := fmt.Sprintf("%s %s in %s", icon, m.outcome.Status, m.outcome.Duration.Round(time.Second))
		b.WriteString("  " + style.Render(summary) + "\n")
	}

	b.WriteString(m.theme.OutputPane.Width(m.viewport.Width).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString("  " + m.theme.FieldHint.Render("enter returns to the form, q quits") + "\n")
	return b.String()
}

// =============================================================================
// STATUS BAR
// =============================================================================

// viewStatusBar assembles the bottom line for the current phase.
func (m *Model) viewStatusBar() string {
	m.statusBar.Phase = m.phase.String()
	m.statusBar.Message = m.statusMsg
	m.statusBar.IsError = m.statusErr

	m.statusBar.Target = ""
	if m.settings.IPAddress != "" {
		m.statusBar.Target = m.settings.Target()
	}

	m.statusBar.Elapsed = ""
	if m.phase == PhaseRunning && m.run != nil {
		m.statusBar.Elapsed = m.run.Duration().Round(time.Second).String()
	}

	m.statusBar.Hints = m.hintsFor(m.phase)
	return m.statusBar.View()
}

// hintsFor picks the shortcut hints per phase, most important first so
// narrow layouts keep the ones that matter.
func (m *Model) hintsFor(p Phase) []components.KeyHint {
	switch p {
	case PhaseRunning:
		return []components.KeyHint{
			{Key: "ctrl+c", Desc: "cancel"},
			{Key: "f", Desc: "follow"},
			{Key: "pgup", Desc: "scroll"},
		}
	case PhasePreflight:
		return []components.KeyHint{
			{Key: "esc", Desc: "abort"},
		}
	case PhaseDone:
		return []components.KeyHint{
			{Key: "enter", Desc: "back to form"},
			{Key: "q", Desc: "quit"},
		}
	default:
		return []components.KeyHint{
			{Key: "tab", Desc: "field"},
			{Key: "<- ->", Desc: "section"},
			{Key: "space", Desc: "toggle"},
			{Key: "enter", Desc: "edit"},
			{Key: "r", Desc: "run"},
			{Key: "t", Desc: "test"},
			{Key: "?", Desc: "help"},
			{Key: "q", Desc: "quit"},
		}
	}
}
