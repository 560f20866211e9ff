// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings holds the provisioning form state and its JSON cache.
//
// Settings is the flat record of everything the operator picks before a
// run: connection details, the feature toggles, hardening options, and
// the dev tool list. It round-trips through a single JSON cache file in
// the user's home directory so the form comes back pre-filled on the
// next launch. Several front-ends have shared this cache schema over
// time, so the JSON field names are load-bearing and must not change.
//
// # Usage
//
//	s, err := settings.Load()
//	if err != nil { ... }
//	s.Hostname = "web-01"
//	if err := s.Save(); err != nil { ... }
//
// Validation is advisory: Validate returns a list of Problems ranked
// error/warning, and the caller decides whether to block the run.
package settings
