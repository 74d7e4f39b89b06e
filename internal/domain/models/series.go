// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// RecurrenceType is the closed set of recurrence patterns a series can follow.
// The string values are wire-stable.
type RecurrenceType string

const (
	// RecurrenceNone is a single, non-repeating occurrence
	RecurrenceNone RecurrenceType = "None"
	// RecurrenceDaily repeats every interval days
	RecurrenceDaily RecurrenceType = "Daily"
	// RecurrenceWeekly repeats every interval weeks on the weekday of the first occurrence
	RecurrenceWeekly RecurrenceType = "Weekly"
	// RecurrenceBiweekly repeats every 2×interval weeks
	RecurrenceBiweekly RecurrenceType = "Biweekly"
	// RecurrenceMonthlyByDate repeats on the same day of month, clamped to the month end
	RecurrenceMonthlyByDate RecurrenceType = "MonthlyByDate"
	// RecurrenceMonthlyByWeekday repeats on the same Nth weekday of the month
	RecurrenceMonthlyByWeekday RecurrenceType = "MonthlyByWeekday"
	// RecurrenceYearly repeats every interval years on the same calendar date
	RecurrenceYearly RecurrenceType = "Yearly"
)

// RecurrenceTypes lists every recurrence type in declaration order.
var RecurrenceTypes = []RecurrenceType{
	RecurrenceNone,
	RecurrenceDaily,
	RecurrenceWeekly,
	RecurrenceBiweekly,
	RecurrenceMonthlyByDate,
	RecurrenceMonthlyByWeekday,
	RecurrenceYearly,
}

// EndConditionKind identifies how a recurrence terminates.
type EndConditionKind string

const (
	// EndNever means the series repeats without bound
	EndNever EndConditionKind = "never"
	// EndOnDate stops after the last occurrence starting on or before Until
	EndOnDate EndConditionKind = "on_date"
	// EndAfterCount stops after Count occurrences
	EndAfterCount EndConditionKind = "after_count"
)

// EndCondition bounds a recurrence. Only the field matching Kind is meaningful.
type EndCondition struct {
	Kind  EndConditionKind `json:"kind"`
	Until *time.Time       `json:"until,omitempty"`
	Count int              `json:"count,omitempty"`
}

// NeverEnds returns an unbounded end condition.
func NeverEnds() EndCondition {
	return EndCondition{Kind: EndNever}
}

// EndsOn returns an end condition bounded by an inclusive nominal start instant.
func EndsOn(until time.Time) EndCondition {
	u := until.UTC()
	return EndCondition{Kind: EndOnDate, Until: &u}
}

// EndsAfter returns an end condition bounded by an occurrence count.
func EndsAfter(count int) EndCondition {
	return EndCondition{Kind: EndAfterCount, Count: count}
}

// IsBounded reports whether the recurrence produces a finite number of occurrences.
func (e EndCondition) IsBounded() bool {
	return e.Kind == EndOnDate || e.Kind == EndAfterCount
}

func (e EndCondition) String() string {
	switch e.Kind {
	case EndOnDate:
		if e.Until == nil {
			return "on_date(<nil>)"
		}
		return fmt.Sprintf("on_date(%s)", e.Until.UTC().Format(time.RFC3339))
	case EndAfterCount:
		return fmt.Sprintf("after_count(%d)", e.Count)
	default:
		return string(EndNever)
	}
}

// RecurrenceRule describes how a series repeats.
//
// DayOfMonth and WeekOfMonth are anchors captured from the first occurrence when
// the series is written. They survive a series split, so a series split off a
// clamped month (Feb 28 of a "31st" rule) keeps following the 31st.
type RecurrenceRule struct {
	Type     RecurrenceType `json:"type"`
	Interval int            `json:"interval"`
	End      EndCondition   `json:"end"`
	// DayOfMonth is the target day (1-31) for MonthlyByDate and Yearly rules.
	DayOfMonth int `json:"day_of_month,omitempty"`
	// WeekOfMonth is the target week (1-4, or -1 for the last) for MonthlyByWeekday rules.
	WeekOfMonth int `json:"week_of_month,omitempty"`
}

// SingleOccurrence returns the rule of a non-repeating series.
func SingleOccurrence() RecurrenceRule {
	return RecurrenceRule{Type: RecurrenceNone, Interval: 1, End: NeverEnds()}
}

// Series is the persistent definition of a recurring agenda.
type Series struct {
	UID                string         `json:"uid"`
	OrganizationUID    string         `json:"organization_uid"`
	CreatedBy          string         `json:"created_by"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	Location           string         `json:"location,omitempty"`
	URL                string         `json:"url,omitempty"`
	StartTime          time.Time      `json:"start_time"` // start of the first occurrence
	EndTime            time.Time      `json:"end_time"`   // end of the first occurrence
	AllDay             bool           `json:"all_day"`
	Recurrence         RecurrenceRule `json:"recurrence"`
	ReminderOffsets    []int          `json:"reminder_offsets,omitempty"` // minutes before start
	IsCancelled        bool           `json:"is_cancelled"`
	CancellationReason string         `json:"cancellation_reason,omitempty"`
	SplitFromUID       string         `json:"split_from_uid,omitempty"`
	SplitAt            *time.Time     `json:"split_at,omitempty"` // nominal start of the parent occurrence the split began at
	Version            uint64         `json:"version"`
	CreatedAt          *time.Time     `json:"created_at,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

// Duration returns the length of every nominal occurrence.
func (s *Series) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	if s == nil {
		return nil
	}
	c := *s
	if s.Recurrence.End.Until != nil {
		u := *s.Recurrence.End.Until
		c.Recurrence.End.Until = &u
	}
	if s.ReminderOffsets != nil {
		c.ReminderOffsets = append([]int(nil), s.ReminderOffsets...)
	}
	if s.SplitAt != nil {
		t := *s.SplitAt
		c.SplitAt = &t
	}
	if s.CreatedAt != nil {
		t := *s.CreatedAt
		c.CreatedAt = &t
	}
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// Tags generates a consistent set of tags for the series for logging and indexing.
func (s *Series) Tags() []string {
	if s == nil {
		return nil
	}

	tags := []string{}
	if s.UID != "" {
		tags = append(tags, s.UID, fmt.Sprintf("series_uid:%s", s.UID))
	}
	if s.OrganizationUID != "" {
		tags = append(tags, fmt.Sprintf("organization_uid:%s", s.OrganizationUID))
	}
	if s.Recurrence.Type != "" {
		tags = append(tags, fmt.Sprintf("recurrence_type:%s", s.Recurrence.Type))
	}
	if s.SplitFromUID != "" {
		tags = append(tags, fmt.Sprintf("split_from_uid:%s", s.SplitFromUID))
	}
	if s.Title != "" {
		tags = append(tags, s.Title)
	}
	return tags
}
