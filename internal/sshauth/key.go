// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sshauth

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/jeranaias/rigup/internal/util"
)

// =============================================================================
// KEY INSPECTION
// =============================================================================

var (
	// ErrPassphraseRequired means the key is encrypted and no passphrase
	// was supplied.
	ErrPassphraseRequired = errors.New("ssh key is passphrase protected")

	// ErrWrongPassphrase means the supplied passphrase does not decrypt
	// the key.
	ErrWrongPassphrase = errors.New("ssh key passphrase is incorrect")
)

// ResolveKeyPath expands a ~-prefixed key path and verifies the file
// exists. The resolved absolute path is what child processes receive.
func ResolveKeyPath(path string) (string, error) {
	expanded := util.ExpandHome(strings.TrimSpace(path))
	if expanded == "" {
		return "", errors.New("ssh key path is empty")
	}
	if _, err := os.Stat(expanded); err != nil {
		return "", fmt.Errorf("ssh key not found: %s", expanded)
	}
	return expanded, nil
}

// CheckKey verifies the key file parses, and decrypts, with the given
// passphrase. Running this before anything spawns turns "ansible hangs
// on an auth prompt" into an immediate, named failure.
func CheckKey(path, passphrase string) error {
	resolved, err := ResolveKeyPath(path)
	if err != nil {
		return err
	}
	_, err = loadRawKey(resolved, passphrase)
	return err
}

// loadRawKey reads and decrypts the private key into the raw form the
// agent protocol wants. An unencrypted key parses regardless of the
// passphrase; a superfluous passphrase is not an error.
func loadRawKey(path, passphrase string) (interface{}, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}

	raw, err := ssh.ParseRawPrivateKey(pemBytes)
	if err == nil {
		return raw, nil
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	raw, err = ssh.ParseRawPrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	if err != nil {
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("decrypt ssh key: %w", err)
	}
	return raw, nil
}
