// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ansible

import (
	"fmt"
	"os"
	"path/filepath"
)

// PlaybookFile is the marker that identifies the playbook checkout.
const PlaybookFile = "playbook.yml"

// FindRoot locates the directory the playbook runs from. The binary
// usually lives somewhere inside the checkout, so the search walks up
// from the executable's directory first, then from the working
// directory.
func FindRoot() (string, error) {
	if exe, err := os.Executable(); err == nil {
		if root, ok := searchUp(filepath.Dir(exe)); ok {
			return root, nil
		}
	}
	if wd, err := os.Getwd(); err == nil {
		if root, ok := searchUp(wd); ok {
			return root, nil
		}
	}
	return "", fmt.Errorf("%s not found above the executable or the working directory (set ansible.playbook in the config to point at it)", PlaybookFile)
}

func searchUp(dir string) (string, bool) {
	for {
		if _, err := os.Stat(filepath.Join(dir, PlaybookFile)); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
