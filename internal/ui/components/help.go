// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigup/internal/ui/styles"
)

// markdownRenderer renders the help guide. Nil when initialization
// fails; rendering then falls back to raw markdown.
var markdownRenderer *glamour.TermRenderer

func init() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)
	if err == nil {
		markdownRenderer = renderer
	}
}

// renderMarkdown renders markdown content for terminal display.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// HelpOverlay is a scrollable markdown guide shown over the form.
type HelpOverlay struct {
	theme    *styles.Theme
	viewport viewport.Model
	visible  bool
	width    int
	height   int
}

// NewHelpOverlay creates the overlay and renders the markdown guide once.
func NewHelpOverlay(theme *styles.Theme, markdown string) HelpOverlay {
	vp := viewport.New(0, 0)
	vp.SetContent(renderMarkdown(markdown))
	return HelpOverlay{
		theme:    theme,
		viewport: vp,
	}
}

// SetSize fits the overlay inside the given terminal dimensions.
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height

	vw := width - 8
	if vw < 20 {
		vw = 20
	}
	vh := height - 6
	if vh < 5 {
		vh = 5
	}
	h.viewport.Width = vw
	h.viewport.Height = vh
}

// Toggle flips visibility and resets scroll when opening.
func (h *HelpOverlay) Toggle() {
	h.visible = !h.visible
	if h.visible {
		h.viewport.GotoTop()
	}
}

// Hide closes the overlay.
func (h *HelpOverlay) Hide() {
	h.visible = false
}

// Visible reports whether the overlay is shown.
func (h *HelpOverlay) Visible() bool {
	return h.visible
}

// Update handles scrolling while the overlay is open.
func (h *HelpOverlay) Update(msg tea.Msg) tea.Cmd {
	if !h.visible {
		return nil
	}
	var cmd tea.Cmd
	h.viewport, cmd = h.viewport.Update(msg)
	return cmd
}

// View renders the bordered overlay box.
func (h *HelpOverlay) View() string {
	if !h.visible {
		return ""
	}
	footer := h.theme.FieldHint.Render("scroll with arrows, ? or esc to close")
	return h.theme.HelpBox.Render(h.viewport.View() + "\n" + footer)
}
