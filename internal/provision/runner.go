// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/config"
	"github.com/jeranaias/rigup/internal/runlog"
)

// =============================================================================
// RUNNER
// =============================================================================

// ErrRunInProgress is returned by Start while another run is live.
var ErrRunInProgress = errors.New("a provisioning run is already in progress")

// eventBuffer is the event channel depth. The consumer drains
// continuously; the buffer only absorbs bursts while the UI repaints.
const eventBuffer = 512

// maxLineSize bounds one output line. Ansible dumps whole JSON results
// on a single line, far past bufio's default token size.
const maxLineSize = 1024 * 1024

// Runner spawns and supervises provisioning runs, one at a time.
type Runner struct {
	cfg *config.Config

	mu      sync.Mutex
	current *Run
}

// NewRunner creates a runner bound to the given config.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Current returns the most recent run, live or finished. Nil before the
// first Start.
func (r *Runner) Current() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// CancelCurrent cancels the live run, if any.
func (r *Runner) CancelCurrent() bool {
	run := r.Current()
	if run == nil {
		return false
	}
	return run.Cancel()
}

// Start spawns ansible-playbook for the invocation and returns the run
// handle plus its event channel. The caller must drain the channel until
// the Done event; the channel closes after it.
//
// Teardown is SIGTERM first; if the child ignores it past the configured
// grace window it is killed outright.
func (r *Runner) Start(ctx context.Context, inv *ansible.Invocation) (*Run, <-chan Event, error) {
	r.mu.Lock()
	if r.current != nil && !r.current.IsDone() {
		r.mu.Unlock()
		return nil, nil, ErrRunInProgress
	}
	run := NewRun(inv.Target(), inv.Preview())
	r.current = run
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	run.SetCancelFunc(cancel)

	fail := func(err error) (*Run, <-chan Event, error) {
		cancel()
		run.MarkFailed(-1, err)
		return nil, nil, err
	}

	cmd := exec.CommandContext(runCtx, inv.Binary, inv.Args()...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env()
	cmd.Cancel = func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
	cmd.WaitDelay = time.Duration(r.cfg.Run.GracePeriodMS) * time.Millisecond

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail(fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fail(fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return fail(fmt.Errorf("spawn %s: %w (is Ansible installed?)", inv.Binary, err))
	}

	run.MarkStarted()
	start := time.Now()

	events := make(chan Event, eventBuffer)
	filter := NewFilter(r.cfg)
	log := r.openLog(events)
	if log != nil {
		log.BeginRun(run.Target, run.Preview)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go stream(stdout, false, filter, run, log, events, &wg)
	go stream(stderr, true, filter, run, log, events, &wg)

	go func() {
		// Readers first, then Wait; Wait closes the pipes.
		wg.Wait()
		werr := cmd.Wait()

		outcome := &Outcome{
			Target:   run.Target,
			Duration: time.Since(start),
		}

		switch {
		case runCtx.Err() != nil:
			run.MarkCanceled()
			outcome.Status = StatusCanceled
			outcome.ExitCode = -1
		case werr == nil:
			run.MarkComplete()
			outcome.Status = StatusComplete
		default:
			code := -1
			var exitErr *exec.ExitError
			if errors.As(werr, &exitErr) {
				// A non-zero exit speaks through the code alone.
				code = exitErr.ExitCode()
				werr = nil
			}
			run.MarkFailed(code, werr)
			outcome.Status = StatusFailed
			outcome.ExitCode = code
			outcome.Err = werr
		}

		if log != nil {
			log.EndRun(outcome.Success(), outcome.ExitCode, outcome.Duration)
			_ = log.Close()
		}

		events <- Event{Kind: EventDone, Outcome: outcome}
		close(events)
	}()

	return run, events, nil
}

// openLog opens the last-run log. Failure to log is reported on the
// stream and otherwise ignored; the run itself matters more.
func (r *Runner) openLog(events chan<- Event) *runlog.Writer {
	path, err := r.cfg.RunLogPath()
	if err != nil {
		events <- Event{Kind: EventLine, Line: "run log unavailable: " + err.Error(), Stderr: true}
		return nil
	}
	log, err := runlog.New(path, int64(r.cfg.Run.MaxLogSizeMB)*1024*1024)
	if err != nil {
		events <- Event{Kind: EventLine, Line: "run log unavailable: " + err.Error(), Stderr: true}
		return nil
	}
	return log
}

// stream reads one pipe line by line, filters, and fans out to the event
// channel, the tail buffer, and the run log.
func stream(pipe io.ReadCloser, stderr bool, filter Filter, run *Run, log *runlog.Writer, events chan<- Event, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line, ok := filter.Clean(scanner.Text(), stderr)
		if !ok {
			continue
		}
		run.appendTail(line)
		if log != nil {
			log.Line(line)
		}
		events <- Event{Kind: EventLine, Line: line, Stderr: stderr}
	}
}
