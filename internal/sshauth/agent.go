// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sshauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/sys/unix"
)

// =============================================================================
// AGENT LIFECYCLE
// =============================================================================

// Agent is one spawned ssh-agent process holding a decrypted key for the
// duration of a run. Callers own its lifetime: StartAgent, AddKey, run,
// Kill.
type Agent struct {
	// Sock is the unix socket the agent listens on.
	Sock string
	// PID is the agent process id.
	PID int
}

// StartAgent spawns a fresh agent and parses its socket and pid from the
// bourne-style output of -s. A dedicated agent per run means Kill cannot
// take down a user's long-lived login agent.
func StartAgent(ctx context.Context, agentBin string) (*Agent, error) {
	if agentBin == "" {
		agentBin = "ssh-agent"
	}
	out, err := exec.CommandContext(ctx, agentBin, "-s").Output()
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", agentBin, err)
	}
	sock, pid, err := parseAgentOutput(string(out))
	if err != nil {
		return nil, err
	}
	return &Agent{Sock: sock, PID: pid}, nil
}

// parseAgentOutput pulls SSH_AUTH_SOCK and SSH_AGENT_PID out of output
// shaped like:
//
//	SSH_AUTH_SOCK=/tmp/ssh-XXXX/agent.123; export SSH_AUTH_SOCK;
//	SSH_AGENT_PID=124; export SSH_AGENT_PID;
//	echo Agent pid 124;
func parseAgentOutput(out string) (sock string, pid int, err error) {
	for _, line := range strings.Split(out, "\n") {
		if v, ok := cutAssign(line, "SSH_AUTH_SOCK="); ok {
			sock = v
		}
		if v, ok := cutAssign(line, "SSH_AGENT_PID="); ok {
			pid, err = strconv.Atoi(v)
			if err != nil {
				return "", 0, fmt.Errorf("ssh-agent reported a non-numeric pid %q", v)
			}
		}
	}
	if sock == "" || pid == 0 {
		return "", 0, errors.New("ssh-agent output missing SSH_AUTH_SOCK or SSH_AGENT_PID")
	}
	return sock, pid, nil
}

func cutAssign(line, prefix string) (string, bool) {
	idx := strings.Index(line, prefix)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(prefix):]
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		rest = rest[:semi]
	}
	return rest, true
}

// AddKey decrypts the key locally and hands it to the agent over its
// unix socket.
func (a *Agent) AddKey(keyPath, passphrase string) error {
	raw, err := loadRawKey(keyPath, passphrase)
	if err != nil {
		return err
	}

	conn, err := net.Dial("unix", a.Sock)
	if err != nil {
		return fmt.Errorf("dial ssh-agent: %w", err)
	}
	defer conn.Close()

	if err := agent.NewClient(conn).Add(agent.AddedKey{
		PrivateKey: raw,
		Comment:    filepath.Base(keyPath),
	}); err != nil {
		return fmt.Errorf("add key to agent: %w", err)
	}
	return nil
}

// Env returns the environment entries a child needs to reach the agent.
func (a *Agent) Env() []string {
	return []string{"SSH_AUTH_SOCK=" + a.Sock}
}

// Kill terminates the agent. Best effort: an agent that already exited
// is not an error.
func (a *Agent) Kill() error {
	if a == nil || a.PID <= 0 {
		return nil
	}
	if err := unix.Kill(a.PID, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill ssh-agent %d: %w", a.PID, err)
	}
	return nil
}
