// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// VALIDATION
// =============================================================================

// Severity ranks a validation problem.
type Severity int

const (
	// SeverityWarning flags a combination that usually works but deserves
	// a second look. Warnings never block a run.
	SeverityWarning Severity = iota
	// SeverityError flags a combination the playbook will reject or that
	// cannot possibly reach the host. Errors block the run.
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	default:
		return "warning"
	}
}

// Problem is a single validation finding tied to a form field.
type Problem struct {
	Field    string
	Message  string
	Severity Severity
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Field, p.Message)
}

// Problems is the full result of validating a Settings record.
type Problems []Problem

// Errors returns only the blocking problems.
func (ps Problems) Errors() Problems {
	var out Problems
	for _, p := range ps {
		if p.Severity == SeverityError {
			out = append(out, p)
		}
	}
	return out
}

// Warnings returns only the advisory problems.
func (ps Problems) Warnings() Problems {
	var out Problems
	for _, p := range ps {
		if p.Severity == SeverityWarning {
			out = append(out, p)
		}
	}
	return out
}

// OK reports whether a run may proceed (no blocking problems).
func (ps Problems) OK() bool {
	return len(ps.Errors()) == 0
}

// Validate checks the form state and returns every finding at once, so
// the UI can mark all offending fields in a single pass.
func (s *Settings) Validate() Problems {
	var ps Problems

	if strings.TrimSpace(s.IPAddress) == "" {
		ps = append(ps, Problem{
			Field:    "ip_address",
			Message:  "target IP address is required",
			Severity: SeverityError,
		})
	} else if !ValidIP(s.IPAddress) {
		ps = append(ps, Problem{
			Field:    "ip_address",
			Message:  fmt.Sprintf("'%s' is not a valid IPv4 address", s.IPAddress),
			Severity: SeverityError,
		})
	}

	if strings.TrimSpace(s.SSHUser) == "" {
		ps = append(ps, Problem{
			Field:    "ssh_user",
			Message:  "SSH user is required",
			Severity: SeverityError,
		})
	}

	if strings.TrimSpace(s.SSHKeyPath) == "" {
		ps = append(ps, Problem{
			Field:    "ssh_key_path",
			Message:  "SSH key path is required",
			Severity: SeverityError,
		})
	}

	// WordPress requires LEMP
	if s.WordPress && !s.LEMP {
		ps = append(ps, Problem{
			Field:    "wordpress",
			Message:  "WordPress requires the LEMP stack; enable LEMP or deselect WordPress",
			Severity: SeverityError,
		})
	}

	// Certbot works best with Nginx
	if s.Certbot && !s.LEMP {
		ps = append(ps, Problem{
			Field:    "certbot",
			Message:  "Certbot works best with Nginx (LEMP stack); consider enabling LEMP",
			Severity: SeverityWarning,
		})
	}

	if s.CreateUser && strings.TrimSpace(s.AddedUser) == "" {
		ps = append(ps, Problem{
			Field:    "added_user",
			Message:  "a username is required when user creation is enabled",
			Severity: SeverityError,
		})
	}

	if s.PeriodicReboot && !ValidRebootSchedule(s.RebootHour) {
		ps = append(ps, Problem{
			Field:    "reboot_hour",
			Message:  fmt.Sprintf("reboot schedule must be an hour (0-23) or an interval like */6, got '%s'", s.RebootHour),
			Severity: SeverityError,
		})
	}

	return ps
}

// ValidRebootSchedule reports whether v is a cron hour field the reboot
// role understands: a single hour 0-23 or an every-N-hours interval in
// the */N form.
func ValidRebootSchedule(v string) bool {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n >= 0 && n <= 23
	}
	if rest, ok := strings.CutPrefix(v, "*/"); ok {
		n, err := strconv.Atoi(rest)
		return err == nil && n >= 1 && n <= 23
	}
	return false
}

// ValidIP reports whether v is a plain dotted-quad IPv4 address: exactly
// four decimal octets 0-255. Hostnames and IPv6 are deliberately not
// accepted; the playbook's templates expect an IPv4 literal.
func ValidIP(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
