// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runlog writes the flat last-run log with secret redaction.
//
// One provisioning run owns the file from BeginRun to Close; starting a
// new run truncates it. This is deliberately not a history store, just
// the answer to "what did the last run print".
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxSize caps how much output one run may log (10MB). Ansible in
// verbose mode against a slow host can produce far more than anyone will
// read back.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// =============================================================================
// REDACTION
// =============================================================================

// Redactor replaces sensitive data in a log line.
type Redactor interface {
	Redact(input string) string
	Name() string
}

// PatternRedactor redacts text matching a regex pattern.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

// NewPatternRedactor creates a pattern-based redactor.
func NewPatternRedactor(name string, pattern *regexp.Regexp, replace string) *PatternRedactor {
	return &PatternRedactor{name: name, pattern: pattern, replace: replace}
}

// Redact replaces matches with the replacement string.
func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

// Name returns the redactor name.
func (r *PatternRedactor) Name() string {
	return r.name
}

// secretPatterns covers the credentials this tool handles. The extra-var
// forms are what leaks when ansible echoes its own command line back in
// an error.
var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"ExtraVarPassword", regexp.MustCompile(`(connection_password|user_password)=\S+`), "$1=[REDACTED]"},
	{"Password", regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
	{"Passphrase", regexp.MustCompile(`(?i)(passphrase)\s*[=:]\s*\S+`), "$1=[REDACTED]"},
}

func defaultRedactors() []Redactor {
	redactors := make([]Redactor, 0, len(secretPatterns))
	for _, sp := range secretPatterns {
		redactors = append(redactors, NewPatternRedactor(sp.name, sp.pattern, sp.replace))
	}
	return redactors
}

// =============================================================================
// WRITER
// =============================================================================

// Writer is a thread-safe, size-capped, redacting log file for one run.
type Writer struct {
	path      string
	file      *os.File
	mu        sync.Mutex
	maxSize   int64
	written   int64
	truncated bool
	redactors []Redactor
}

// New opens (and truncates) the log file. maxSize <= 0 uses
// DefaultMaxSize.
func New(path string, maxSize int64) (*Writer, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create run log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &Writer{
		path:      path,
		file:      file,
		maxSize:   maxSize,
		redactors: defaultRedactors(),
	}, nil
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// AddRedactor appends a custom redactor, applied after the defaults.
func (w *Writer) AddRedactor(r Redactor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.redactors = append(w.redactors, r)
}

// Redact runs a string through every configured redactor.
func (w *Writer) Redact(input string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.redactLocked(input)
}

func (w *Writer) redactLocked(input string) string {
	for _, r := range w.redactors {
		input = r.Redact(input)
	}
	return input
}

// BeginRun writes the header for one run.
func (w *Writer) BeginRun(target, preview string) {
	w.Line(fmt.Sprintf("=== rigup run started %s ===", time.Now().Format("2006-01-02 15:04:05")))
	w.Line("target: " + target)
	w.Line("command: " + preview)
	w.Line("")
}

// EndRun writes the footer for one run.
func (w *Writer) EndRun(success bool, exitCode int, duration time.Duration) {
	verdict := "FAILED"
	if success {
		verdict = "SUCCEEDED"
	}
	w.Line("")
	w.Line(fmt.Sprintf("=== run %s (exit %d) after %s ===", verdict, exitCode, duration.Round(time.Second)))
}

// Line redacts and appends one line. Writes past the size cap are
// dropped after a single marker line; a wedged playbook must not fill
// the disk.
func (w *Writer) Line(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return
	}
	if w.written >= w.maxSize {
		if !w.truncated {
			w.truncated = true
			fmt.Fprintln(w.file, "[log truncated: size cap reached]")
		}
		return
	}

	n, err := fmt.Fprintln(w.file, w.redactLocked(line))
	if err != nil {
		// Logging is best effort; the UI stream is the primary surface.
		return
	}
	w.written += int64(n)
}

// Truncated reports whether the size cap cut this log short.
func (w *Writer) Truncated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.truncated
}

// Close flushes and closes the file. Safe to call twice.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
