// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly; a
// "dark" or "light" preference from config pins the adaptive palette to
// one side instead of trusting background detection.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	Forced       bool // theme preference overrode background detection
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Target   lipgloss.Style

	// ==========================================================================
	// FORM STYLES
	// ==========================================================================

	SectionTab       lipgloss.Style
	SectionTabActive lipgloss.Style
	FieldLabel       lipgloss.Style
	FieldValue       lipgloss.Style
	FieldFocused     lipgloss.Style
	FieldSecret      lipgloss.Style
	FieldHint        lipgloss.Style
	FieldDisabled    lipgloss.Style
	ToggleEnabled    lipgloss.Style
	ToggleDisabled   lipgloss.Style
	EditPrompt       lipgloss.Style

	// ==========================================================================
	// VALIDATION STYLES
	// ==========================================================================

	ProblemError   lipgloss.Style
	ProblemWarning lipgloss.Style

	// ==========================================================================
	// PREFLIGHT AND SPINNER STYLES
	// ==========================================================================

	Spinner   lipgloss.Style
	CheckPass lipgloss.Style
	CheckWarn lipgloss.Style
	CheckFail lipgloss.Style
	CheckFix  lipgloss.Style

	// ==========================================================================
	// OUTPUT PANE STYLES
	// ==========================================================================

	OutputPane   lipgloss.Style
	OutputLine   lipgloss.Style
	OutputStderr lipgloss.Style
	BannerOK     lipgloss.Style
	BannerFail   lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusPhase  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Separator    lipgloss.Style

	// ==========================================================================
	// OVERLAY STYLES
	// ==========================================================================

	HelpBox   lipgloss.Style
	ErrorBox  lipgloss.Style
	ErrorText lipgloss.Style
}

// NewTheme creates a theme for the given preference: "dark", "light" or
// anything else for background auto-detection.
func NewTheme(pref string) *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	switch pref {
	case "dark":
		t.IsDark = true
		t.Forced = true
	case "light":
		t.IsDark = false
		t.Forced = true
	default:
		t.IsDark = termenv.HasDarkBackground()
	}

	t.initStyles()
	return t
}

// pick resolves an adaptive color against the theme preference. When the
// operator forced a theme, background detection must not override it.
func (t *Theme) pick(c lipgloss.AdaptiveColor) lipgloss.TerminalColor {
	if !t.Forced {
		return c
	}
	if t.IsDark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.pick(Cyan))

	t.Subtitle = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted)).
		Italic(true)

	t.Target = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.pick(Purple))

	// Form
	t.SectionTab = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted)).
		Padding(0, 1)

	t.SectionTabActive = lipgloss.NewStyle().
		Foreground(t.pick(TextInverse)).
		Background(t.pick(Purple)).
		Bold(true).
		Padding(0, 1)

	t.FieldLabel = lipgloss.NewStyle().
		Foreground(t.pick(TextSecondary))

	t.FieldValue = lipgloss.NewStyle().
		Foreground(t.pick(TextPrimary))

	t.FieldFocused = lipgloss.NewStyle().
		Foreground(t.pick(Cyan)).
		Bold(true)

	t.FieldSecret = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted))

	t.FieldHint = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted)).
		Italic(true)

	t.FieldDisabled = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted))

	t.ToggleEnabled = lipgloss.NewStyle().
		Foreground(t.pick(SuccessHighContrast)).
		Bold(true)

	t.ToggleDisabled = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted))

	t.EditPrompt = lipgloss.NewStyle().
		Foreground(t.pick(Cyan)).
		Bold(true)

	// Validation
	t.ProblemError = lipgloss.NewStyle().
		Foreground(t.pick(ErrorHighContrast)).
		Bold(true)

	t.ProblemWarning = lipgloss.NewStyle().
		Foreground(t.pick(WarningHighContrast))

	// Preflight and spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(t.pick(Purple))

	t.CheckPass = lipgloss.NewStyle().
		Foreground(t.pick(SuccessHighContrast)).
		Bold(true)

	t.CheckWarn = lipgloss.NewStyle().
		Foreground(t.pick(WarningHighContrast))

	t.CheckFail = lipgloss.NewStyle().
		Foreground(t.pick(ErrorHighContrast)).
		Bold(true)

	t.CheckFix = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted))

	// Output pane
	t.OutputPane = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderBottom(true).
		BorderForeground(t.pick(Overlay))

	t.OutputLine = lipgloss.NewStyle().
		Foreground(t.pick(TextPrimary))

	t.OutputStderr = lipgloss.NewStyle().
		Foreground(t.pick(Amber))

	t.BannerOK = lipgloss.NewStyle().
		Foreground(t.pick(SuccessHighContrast)).
		Bold(true)

	t.BannerFail = lipgloss.NewStyle().
		Foreground(t.pick(ErrorHighContrast)).
		Bold(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(t.pick(SurfaceDim)).
		Foreground(t.pick(TextSecondary)).
		Padding(0, 1)

	t.StatusPhase = lipgloss.NewStyle().
		Foreground(t.pick(Cyan)).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(t.pick(Cyan)).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted))

	t.Separator = lipgloss.NewStyle().
		Foreground(t.pick(Overlay))

	// Overlays
	t.HelpBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.pick(Purple)).
		Padding(1, 2)

	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(t.pick(Rose)).
		Padding(1, 2)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(t.pick(Rose)).
		Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
