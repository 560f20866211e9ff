// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package runlog

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, maxSize int64) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "last-run.log")
	w, err := New(path, maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// =============================================================================
// REDACTION TESTS
// =============================================================================

func TestWriter_RedactsExtraVarPasswords(t *testing.T) {
	w, path := newTestWriter(t, 0)

	w.Line(`fatal: ansible-playbook playbook.yml -e connection_password=hunter2 -e user_password=s3cret failed`)
	require.NoError(t, w.Close())

	got := readLog(t, path)
	assert.NotContains(t, got, "hunter2")
	assert.NotContains(t, got, "s3cret")
	assert.Contains(t, got, "connection_password=[REDACTED]")
	assert.Contains(t, got, "user_password=[REDACTED]")
}

func TestWriter_RedactsPassphrases(t *testing.T) {
	w, path := newTestWriter(t, 0)

	w.Line("debug: passphrase=swordfish rejected")
	require.NoError(t, w.Close())

	got := readLog(t, path)
	assert.NotContains(t, got, "swordfish")
}

func TestWriter_KeepsOrdinaryOutput(t *testing.T) {
	w, path := newTestWriter(t, 0)

	w.Line("TASK [Install docker] ******")
	w.Line("ok: [192.0.2.1]")
	require.NoError(t, w.Close())

	got := readLog(t, path)
	assert.Contains(t, got, "TASK [Install docker]")
	assert.Contains(t, got, "ok: [192.0.2.1]")
}

func TestPatternRedactor(t *testing.T) {
	r := NewPatternRedactor("token", regexp.MustCompile(`tok_[a-z0-9]+`), "[TOKEN]")
	assert.Equal(t, "auth [TOKEN] ok", r.Redact("auth tok_abc123 ok"))
	assert.Equal(t, "token", r.Name())
}

// =============================================================================
// FILE MECHANICS TESTS
// =============================================================================

func TestWriter_HeaderAndFooter(t *testing.T) {
	w, path := newTestWriter(t, 0)

	w.BeginRun("root@192.0.2.1", "ansible-playbook playbook.yml -e target_ip=192.0.2.1")
	w.Line("PLAY [all] ******")
	w.EndRun(true, 0, 0)
	require.NoError(t, w.Close())

	got := readLog(t, path)
	assert.Contains(t, got, "rigup run started")
	assert.Contains(t, got, "target: root@192.0.2.1")
	assert.Contains(t, got, "run SUCCEEDED (exit 0)")
}

func TestWriter_SizeCap(t *testing.T) {
	w, path := newTestWriter(t, 200)

	long := strings.Repeat("x", 64)
	for i := 0; i < 50; i++ {
		w.Line(long)
	}
	require.NoError(t, w.Close())

	assert.True(t, w.Truncated())
	got := readLog(t, path)
	assert.Contains(t, got, "[log truncated: size cap reached]")
	// Cap plus one full line plus the marker, never 50 lines worth.
	assert.Less(t, len(got), 400)
}

func TestWriter_NewRunTruncatesOldLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-run.log")

	w1, err := New(path, 0)
	require.NoError(t, err)
	w1.Line("old run output")
	require.NoError(t, w1.Close())

	w2, err := New(path, 0)
	require.NoError(t, err)
	w2.Line("new run output")
	require.NoError(t, w2.Close())

	got := readLog(t, path)
	assert.NotContains(t, got, "old run output")
	assert.Contains(t, got, "new run output")
}

func TestWriter_Permissions(t *testing.T) {
	_, path := newTestWriter(t, 0)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriter_CloseTwice(t *testing.T) {
	w, _ := newTestWriter(t, 0)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	// Writes after close are dropped, not a panic.
	w.Line("ignored")
}

func TestWriter_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "last-run.log")
	w, err := New(path, 0)
	require.NoError(t, err)
	w.Line("hello")
	require.NoError(t, w.Close())

	assert.Contains(t, readLog(t, path), "hello")
}
