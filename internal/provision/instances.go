// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// =============================================================================
// DUPLICATE INSTANCE CLEANUP
// =============================================================================

// commLen is the kernel's cap on /proc/<pid>/comm.
const commLen = 15

// KillDuplicates finds other live processes running the same binary and
// asks them to exit with SIGTERM. Two instances fighting over the cache
// file and the run log is worse than politely evicting the older one.
// Returns the pids signaled. Linux only; elsewhere it is a no-op.
func KillDuplicates(binName string) []int {
	if runtime.GOOS != "linux" || binName == "" {
		return nil
	}

	want := binName
	if len(want) > commLen {
		want = want[:commLen]
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}

	self := os.Getpid()
	var killed []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == self {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(comm)) != want {
			continue
		}
		// SIGTERM only. A stuck duplicate that ignores it is left for
		// the operator; a blind SIGKILL here could drop a run mid-task.
		if err := unix.Kill(pid, unix.SIGTERM); err == nil {
			killed = append(killed, pid)
		}
	}
	return killed
}
