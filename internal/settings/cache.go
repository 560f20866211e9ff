// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/rigup/internal/util"
)

// cacheFileName sits directly in the home directory, not under ~/.rigup:
// the earlier GUIs put it there and existing installs still have it.
const cacheFileName = ".ansible_provisioning_cache.json"

// CachePath returns the settings cache location.
func CachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, cacheFileName), nil
}

// Load reads the settings cache. A missing file is not an error; the
// defaults come back instead. A present-but-unreadable file is an error
// so the operator finds out before their saved form silently vanishes.
func Load() (*Settings, error) {
	path, err := CachePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a settings cache from an explicit path.
func LoadFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	// Start from defaults so fields added after the cache was written
	// keep their default values instead of zeroing out.
	s := Default()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse cache: %w", err)
	}
	return s, nil
}

// Save writes the settings cache. Called on every form change and right
// before each run, so the write must be atomic: a crash mid-save may not
// eat the operator's forty checkboxes.
func (s *Settings) Save() error {
	path, err := CachePath()
	if err != nil {
		return err
	}
	return s.SaveTo(path)
}

// SaveTo writes the settings cache to an explicit path.
// SECURITY: 0600; the cache holds the connection password and passphrase.
func (s *Settings) SaveTo(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}
