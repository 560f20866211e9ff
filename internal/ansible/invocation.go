// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ansible

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/settings"
	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is a fully resolved ansible-playbook command: what to run,
// where from, and with which extra variables and environment.
type Invocation struct {
	// Binary is the ansible-playbook executable name or path.
	Binary string
	// Dir is the working directory, the playbook checkout root.
	Dir string
	// Playbook is the playbook argument, usually just PlaybookFile.
	Playbook string
	// Inventory is passed with -i when set.
	Inventory string
	// Vars is the ordered -e list.
	Vars []Var
	// NoColor sets ANSIBLE_NOCOLOR=1 in the child environment.
	NoColor bool
	// ExtraEnv holds additional KEY=value entries layered on top of the
	// parent environment, e.g. the SSH agent socket.
	ExtraEnv []string
}

// NewInvocation resolves the command for one provisioning run. An
// explicit playbook path in the config wins over marker-file discovery.
func NewInvocation(cfg *config.Config, s *settings.Settings) (*Invocation, error) {
	inv := &Invocation{
		Binary:    cfg.Ansible.Binary,
		Playbook:  PlaybookFile,
		Inventory: cfg.Ansible.Inventory,
		Vars:      BuildVars(s),
		NoColor:   cfg.Ansible.NoColor,
	}

	if p := cfg.Ansible.Playbook; p != "" {
		abs, err := filepath.Abs(util.ExpandHome(p))
		if err != nil {
			return nil, fmt.Errorf("resolve playbook path: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("playbook not found: %s", abs)
		}
		inv.Dir = filepath.Dir(abs)
		inv.Playbook = filepath.Base(abs)
		return inv, nil
	}

	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	inv.Dir = root
	return inv, nil
}

// Args returns the argument vector after the binary name.
func (inv *Invocation) Args() []string {
	args := make([]string, 0, 2*len(inv.Vars)+3)
	args = append(args, inv.Playbook)
	if inv.Inventory != "" {
		args = append(args, "-i", inv.Inventory)
	}
	for _, v := range inv.Vars {
		args = append(args, "-e", v.Key+"="+v.Value)
	}
	return args
}

// Env returns the child environment: the parent's, plus the color
// switch, plus any per-run extras.
func (inv *Invocation) Env() []string {
	env := os.Environ()
	if inv.NoColor {
		env = append(env, "ANSIBLE_NOCOLOR=1")
	}
	return append(env, inv.ExtraEnv...)
}

// Preview returns a shell-style rendering of the command with credential
// values masked. Banners, confirmation prompts, and the run log all show
// this form; the real argv never passes through here.
func (inv *Invocation) Preview() string {
	var b strings.Builder
	b.WriteString(inv.Binary)
	b.WriteByte(' ')
	b.WriteString(inv.Playbook)
	if inv.Inventory != "" {
		b.WriteString(" -i ")
		b.WriteString(inv.Inventory)
	}
	for _, v := range inv.Vars {
		b.WriteString(" -e ")
		b.WriteString(v.Redacted())
	}
	return b.String()
}

// Target returns the user@host the invocation is aimed at, read back out
// of the variable list.
func (inv *Invocation) Target() string {
	var ip, user string
	for _, v := range inv.Vars {
		switch v.Key {
		case "target_ip":
			ip = v.Value
		case "target_user":
			user = v.Value
		}
	}
	return user + "@" + ip
}
