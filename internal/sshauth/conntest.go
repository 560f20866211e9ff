// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sshauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// REACHABILITY PROBE
// =============================================================================

// probeMarker is what the remote shell echoes back on success.
const probeMarker = "Online"

// Tester runs the pre-flight SSH reachability probe.
type Tester struct {
	cfg     *config.Config
	limiter *rate.Limiter
}

// NewTester returns a probe runner. The limiter keeps a bouncing finger
// on the test button from stacking up ssh processes: one probe every two
// seconds, no burst.
func NewTester(cfg *config.Config) *Tester {
	return &Tester{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// BuildProbeArgs returns the ssh argument vector for one probe.
// BatchMode keeps a broken key from degenerating into an interactive
// password prompt nobody can answer.
func BuildProbeArgs(cfg *config.Config, keyPath, target string) []string {
	args := []string{
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%d", cfg.SSH.ConnectTimeoutSecs),
	}
	if !cfg.SSH.StrictHostKeyChecking {
		args = append(args, "-o", "StrictHostKeyChecking=no")
	}
	return append(args,
		"-i", keyPath,
		target,
		fmt.Sprintf("echo '%s'", probeMarker),
	)
}

// Result is the outcome of one reachability probe.
type Result struct {
	// Online is true when the remote shell echoed the marker back.
	Online bool
	// Output is the trimmed combined output, shown on failure.
	Output string
	// Duration is how long the probe took.
	Duration time.Duration
}

// Probe checks that the target host accepts the configured key. A host
// that refuses is a false Result, not an error; errors mean the probe
// itself could not run.
func (t *Tester) Probe(ctx context.Context, s *settings.Settings) (*Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	keyPath, err := ResolveKeyPath(s.SSHKeyPath)
	if err != nil {
		return nil, err
	}

	var ag *Agent
	if s.SSHKeyPassphrase != "" {
		ag, err = StartAgent(ctx, t.cfg.SSH.AgentBinary)
		if err != nil {
			return nil, err
		}
		defer ag.Kill()
		if err := ag.AddKey(keyPath, s.SSHKeyPassphrase); err != nil {
			return nil, err
		}
	}

	cmd := exec.CommandContext(ctx, t.cfg.SSH.Binary, BuildProbeArgs(t.cfg, keyPath, s.Target())...)
	cmd.Env = os.Environ()
	if ag != nil {
		cmd.Env = append(cmd.Env, ag.Env()...)
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()
	res := &Result{
		Output:   strings.TrimSpace(string(out)),
		Duration: time.Since(start),
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// ssh ran and the host said no. That is a probe answer.
			return res, nil
		}
		return nil, fmt.Errorf("run %s: %w", t.cfg.SSH.Binary, err)
	}

	res.Online = strings.Contains(res.Output, probeMarker)
	return res, nil
}
