// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"iter"
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// OccurrenceEvaluator defines the interface for expanding a series' recurrence
// rule into nominal occurrences.
type OccurrenceEvaluator interface {
	// Validate rejects malformed rules with an InvalidRuleError.
	Validate(rule models.RecurrenceRule, firstStart, firstEnd time.Time) error

	// Expand returns the occurrences intersecting [windowStart, windowEnd) in
	// start order. End conditions apply to the whole series before windowing.
	Expand(rule models.RecurrenceRule, firstStart, firstEnd, windowStart, windowEnd time.Time) []models.NominalOccurrence

	// Sequence streams every occurrence of the series in order.
	Sequence(rule models.RecurrenceRule, firstStart, firstEnd time.Time) iter.Seq[models.NominalOccurrence]

	// OccurrenceAt returns the occurrence at a 0-based index, if it exists.
	OccurrenceAt(rule models.RecurrenceRule, firstStart, firstEnd time.Time, index int) (models.NominalOccurrence, bool)

	// NextFrom returns the first occurrence starting at or after t.
	NextFrom(rule models.RecurrenceRule, firstStart, firstEnd, t time.Time) (models.NominalOccurrence, bool)

	// Count returns the number of occurrences of a bounded series; false when unbounded.
	Count(rule models.RecurrenceRule, firstStart, firstEnd time.Time) (int, bool)
}
