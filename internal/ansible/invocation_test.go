// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ansible

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/rigup/internal/config"
)

func TestInvocation_Args(t *testing.T) {
	inv := &Invocation{
		Binary:   "ansible-playbook",
		Playbook: "playbook.yml",
		Vars: []Var{
			{Key: "target_ip", Value: "192.0.2.1"},
			{Key: "prompt_install_docker", Value: "yes"},
		},
	}

	args := inv.Args()
	if args[0] != "playbook.yml" {
		t.Errorf("args[0] = %q, want the playbook", args[0])
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-e target_ip=192.0.2.1") {
		t.Errorf("Args missing target_ip pair: %v", args)
	}
	if !strings.Contains(joined, "-e prompt_install_docker=yes") {
		t.Errorf("Args missing docker pair: %v", args)
	}
	if strings.Contains(joined, "-i") {
		t.Errorf("No inventory configured, -i should be absent: %v", args)
	}
}

func TestInvocation_ArgsWithInventory(t *testing.T) {
	inv := &Invocation{
		Playbook:  "playbook.yml",
		Inventory: "inventory.ini",
		Vars:      []Var{{Key: "target_ip", Value: "192.0.2.1"}},
	}

	args := inv.Args()
	if args[1] != "-i" || args[2] != "inventory.ini" {
		t.Errorf("Inventory should follow the playbook: %v", args)
	}
}

func TestInvocation_EnvNoColor(t *testing.T) {
	inv := &Invocation{NoColor: true, ExtraEnv: []string{"SSH_AUTH_SOCK=/tmp/agent.sock"}}

	env := inv.Env()
	var sawNoColor, sawSock bool
	for _, e := range env {
		if e == "ANSIBLE_NOCOLOR=1" {
			sawNoColor = true
		}
		if e == "SSH_AUTH_SOCK=/tmp/agent.sock" {
			sawSock = true
		}
	}
	if !sawNoColor {
		t.Error("Env should set ANSIBLE_NOCOLOR=1")
	}
	if !sawSock {
		t.Error("Env should carry the extra agent socket entry")
	}

	inv.NoColor = false
	for _, e := range inv.Env() {
		if e == "ANSIBLE_NOCOLOR=1" {
			t.Error("ANSIBLE_NOCOLOR should be absent when color is allowed")
		}
	}
}

func TestInvocation_PreviewMasksSecrets(t *testing.T) {
	inv := &Invocation{
		Binary:   "ansible-playbook",
		Playbook: "playbook.yml",
		Vars: []Var{
			{Key: "target_ip", Value: "192.0.2.1"},
			{Key: "connection_password", Value: "hunter2"},
			{Key: "user_password", Value: "s3cret"},
		},
	}

	preview := inv.Preview()
	if strings.Contains(preview, "hunter2") || strings.Contains(preview, "s3cret") {
		t.Errorf("Preview leaked a credential: %s", preview)
	}
	if !strings.Contains(preview, "connection_password=****") {
		t.Errorf("Preview should show the masked key: %s", preview)
	}
	if !strings.Contains(preview, "target_ip=192.0.2.1") {
		t.Errorf("Preview should keep non-secret values: %s", preview)
	}
}

func TestInvocation_Target(t *testing.T) {
	inv := &Invocation{Vars: []Var{
		{Key: "target_ip", Value: "192.0.2.9"},
		{Key: "target_user", Value: "root"},
	}}
	if got := inv.Target(); got != "root@192.0.2.9" {
		t.Errorf("Target() = %q", got)
	}
}

func TestNewInvocation_ExplicitPlaybook(t *testing.T) {
	dir := t.TempDir()
	playbook := filepath.Join(dir, "site.yml")
	if err := os.WriteFile(playbook, []byte("---\n"), 0644); err != nil {
		t.Fatalf("Failed to write playbook: %v", err)
	}

	cfg := config.Default()
	cfg.Ansible.Playbook = playbook

	inv, err := NewInvocation(cfg, baseSettings())
	if err != nil {
		t.Fatalf("NewInvocation failed: %v", err)
	}
	if inv.Dir != dir {
		t.Errorf("Dir = %q, want %q", inv.Dir, dir)
	}
	if inv.Playbook != "site.yml" {
		t.Errorf("Playbook = %q, want site.yml", inv.Playbook)
	}
}

func TestNewInvocation_MissingPlaybook(t *testing.T) {
	cfg := config.Default()
	cfg.Ansible.Playbook = filepath.Join(t.TempDir(), "nope.yml")

	if _, err := NewInvocation(cfg, baseSettings()); err == nil {
		t.Error("A configured playbook that does not exist should fail fast")
	}
}

func TestSearchUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, PlaybookFile), []byte("---\n"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	deep := filepath.Join(root, "gui", "build", "release")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}

	got, ok := searchUp(deep)
	if !ok || got != root {
		t.Errorf("searchUp(%q) = %q, %v; want %q", deep, got, ok, root)
	}

	if _, ok := searchUp(filepath.Join(t.TempDir(), "isolated")); ok {
		t.Error("searchUp should miss when no marker exists above the start")
	}
}
