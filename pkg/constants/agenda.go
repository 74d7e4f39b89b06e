// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Recurrence expansion limits
const (
	// DefaultMaxOccurrenceScan is the number of occurrences an unbounded rule is
	// expanded to before iteration stops.
	DefaultMaxOccurrenceScan = 100000

	// MaxRecurrenceInterval is the largest accepted recurrence interval
	MaxRecurrenceInterval = 1000

	// DefaultMaxWindowDays is the widest occurrence window a caller may request
	DefaultMaxWindowDays = 731
)

// Series constraints
const (
	// MaxTitleLength is the maximum length of a series title
	MaxTitleLength = 256

	// MaxReminderOffsetMinutes is the earliest a reminder may fire before an occurrence (4 weeks)
	MaxReminderOffsetMinutes = 40320

	// MaxReminderOffsets is the maximum number of reminders per series
	MaxReminderOffsets = 5

	// MaxOccurrenceDuration is the longest a single occurrence may last
	MaxOccurrenceDuration = 7 * 24 * time.Hour
)

// Reminder dispatch defaults
const (
	// DefaultReminderSchedule is the cron spec of the reminder scan
	DefaultReminderSchedule = "@every 1m"

	// DefaultEventWorkers is the number of concurrent change event publishers
	DefaultEventWorkers = 4
)
