// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

// ToolOption pairs a CLI tool's display label with its switch in the
// settings. The pointer targets the receiver the options were built
// from, so flipping Flag mutates that Settings directly.
type ToolOption struct {
	Label string
	Flag  *bool
}

// ToolOptions lists the per-tool switches in display order. Every
// surface that enumerates tools (wizard, cache summary, TUI form)
// builds on this list so the set can never drift between them.
func (s *Settings) ToolOptions() []ToolOption {
	return []ToolOption{
		{"neovim", &s.InstallNeovim},
		{"node.js", &s.InstallNodejs},
		{"claude code", &s.InstallClaudeCode},
		{"gemini cli", &s.InstallGemini},
		{"kiro", &s.InstallKiro},
		{"github cli", &s.InstallGithubCLI},
		{"btop", &s.InstallBtop},
		{"tldr", &s.InstallTldr},
		{"lazygit", &s.InstallLazygit},
		{"tmux", &s.InstallTmux},
		{"zsh", &s.InstallZsh},
		{"ripgrep", &s.InstallRipgrep},
		{"fd", &s.InstallFd},
		{"duf", &s.InstallDuf},
		{"ncdu", &s.InstallNcdu},
		{"lnav", &s.InstallLnav},
		{"uv", &s.InstallUv},
		{"fzf", &s.InstallFzf},
		{"bat", &s.InstallBat},
		{"eza", &s.InstallEza},
		{"zoxide", &s.InstallZoxide},
		{"jq", &s.InstallJq},
		{"htop", &s.InstallHtop},
		{"gping", &s.InstallGping},
		{"nmap", &s.InstallNmap},
		{"autossh", &s.InstallAutossh},
		{"starship", &s.InstallStarship},
		{"direnv", &s.InstallDirenv},
		{"fish", &s.InstallFish},
		{"micro", &s.InstallMicro},
		{"ranger", &s.InstallRanger},
	}
}

// ToolCount reports how many of the per-tool switches are on.
func (s *Settings) ToolCount() (enabled, total int) {
	opts := s.ToolOptions()
	for _, o := range opts {
		if *o.Flag {
			enabled++
		}
	}
	return enabled, len(opts)
}

// CopyToolSelection applies the tool switches from src onto dst without
// touching anything else.
func CopyToolSelection(src, dst *Settings) {
	srcOpts := src.ToolOptions()
	dstOpts := dst.ToolOptions()
	for i := range srcOpts {
		*dstOpts[i].Flag = *srcOpts[i].Flag
	}
}
