// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package timeline groups effective occurrences into labelled calendar days.
package timeline

import (
	"sort"
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

const (
	LabelToday    = "Today"
	LabelTomorrow = "Tomorrow"

	// dateLabelLayout labels days a week or more away, and past days.
	dateLabelLayout = "Jan 2, 2006"
)

// Day is one calendar day of a timeline.
type Day struct {
	// Date is local midnight of the day.
	Date        time.Time                    `json:"date"`
	Label       string                       `json:"label"`
	Occurrences []models.EffectiveOccurrence `json:"occurrences"`
}

// GroupByDay buckets occurrences by the local calendar day of their start, in
// start order. A nil loc means UTC.
func GroupByDay(occurrences []models.EffectiveOccurrence, now time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]models.EffectiveOccurrence, len(occurrences))
	copy(sorted, occurrences)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var days []Day
	for _, occ := range sorted {
		date := midnight(occ.Start, loc)
		if len(days) == 0 || !days[len(days)-1].Date.Equal(date) {
			days = append(days, Day{Date: date, Label: Label(date, now, loc)})
		}
		last := &days[len(days)-1]
		last.Occurrences = append(last.Occurrences, occ)
	}
	return days
}

// Label names day relative to now: Today, Tomorrow, the weekday for the rest
// of the coming week, otherwise the date.
func Label(day, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	switch diff := daysBetween(midnight(now, loc), midnight(day, loc)); {
	case diff == 0:
		return LabelToday
	case diff == 1:
		return LabelTomorrow
	case diff > 1 && diff < 7:
		return day.In(loc).Weekday().String()
	default:
		return day.In(loc).Format(dateLabelLayout)
	}
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days, ignoring DST-length days.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
