// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

// rebootScheduleChoices are the schedules the front-ends offer. The
// validator accepts a wider range (any hour, any */N interval) so a
// hand-edited cache keeps working.
var rebootScheduleChoices = []string{"1", "3", "5", "*/6", "*/12"}

// RebootScheduleChoices returns the schedule values offered by the
// wizard and the TUI dropdown, in display order.
func RebootScheduleChoices() []string {
	return append([]string(nil), rebootScheduleChoices...)
}

// RebootScheduleLabel returns the display label for a schedule value.
// Unknown values fall back to the default schedule's label, matching
// what the dropdown would show for them.
func RebootScheduleLabel(v string) string {
	switch v {
	case "1":
		return "01:00 Standard"
	case "3":
		return "03:00 Standard"
	case "5":
		return "05:00 Standard"
	case "*/6":
		return "Interval: 6 Hours"
	case "*/12":
		return "Interval: 12 Hours"
	default:
		return "03:00 Standard"
	}
}
