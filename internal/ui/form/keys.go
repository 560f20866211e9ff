// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings for the provisioning form.
type KeyMap struct {
	NextField   key.Binding
	PrevField   key.Binding
	NextSection key.Binding
	PrevSection key.Binding
	Toggle      key.Binding
	Edit        key.Binding
	Run         key.Binding
	Test        key.Binding
	Help        key.Binding
	Cancel      key.Binding
	Follow      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("right", "]"),
			key.WithHelp("->", "next section"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("left", "["),
			key.WithHelp("<-", "prev section"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit"),
		),
		Run: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "run"),
		),
		Test: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test conn"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c", "cancel run"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow output"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the compact help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Toggle, k.Run, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.NextSection, k.PrevSection},
		{k.Toggle, k.Edit, k.Run, k.Test},
		{k.Follow, k.Cancel, k.Help, k.Quit},
	}
}
