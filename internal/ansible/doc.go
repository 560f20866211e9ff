// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ansible turns the provisioning form into an ansible-playbook
// invocation: the ordered extra-variable list, the argument vector, the
// child environment, and the playbook-root discovery that decides the
// working directory. Nothing in this package runs the command; that is
// the provision package's job.
package ansible
