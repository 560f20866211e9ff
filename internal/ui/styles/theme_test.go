// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThemeForcedDark(t *testing.T) {
	th := NewTheme("dark")
	require.NotNil(t, th)
	assert.True(t, th.IsDark)
	assert.True(t, th.Forced)
}

func TestNewThemeForcedLight(t *testing.T) {
	th := NewTheme("light")
	require.NotNil(t, th)
	assert.False(t, th.IsDark)
	assert.True(t, th.Forced)
}

func TestNewThemeAuto(t *testing.T) {
	th := NewTheme("auto")
	require.NotNil(t, th)
	assert.False(t, th.Forced)
}

func TestPickPinsForcedTheme(t *testing.T) {
	c := lipgloss.AdaptiveColor{Light: "#111111", Dark: "#eeeeee"}

	dark := NewTheme("dark")
	assert.Equal(t, lipgloss.Color("#eeeeee"), dark.pick(c))

	light := NewTheme("light")
	assert.Equal(t, lipgloss.Color("#111111"), light.pick(c))
}

func TestPickPassesThroughWhenAuto(t *testing.T) {
	c := lipgloss.AdaptiveColor{Light: "#111111", Dark: "#eeeeee"}
	th := NewTheme("auto")
	assert.Equal(t, c, th.pick(c))
}

func TestGetLayoutMode(t *testing.T) {
	th := NewTheme("dark")

	tests := []struct {
		width    int
		expected LayoutMode
	}{
		{30, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	for _, tt := range tests {
		th.SetSize(tt.width, 40)
		assert.Equal(t, tt.expected, th.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestSetSize(t *testing.T) {
	th := NewTheme("dark")
	th.SetSize(120, 48)
	assert.Equal(t, 120, th.Width)
	assert.Equal(t, 48, th.Height)
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Pending,
		StatusIndicators.Active,
		ToggleOn,
		ToggleOff,
	} {
		for _, r := range s {
			assert.Less(t, r, rune(128), "indicator %q must stay ASCII", s)
		}
	}
}
