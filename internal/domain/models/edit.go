// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"

	"github.com/samber/mo"
)

// EditScope is the breadth of a series edit. The string values are wire-stable.
type EditScope string

const (
	// EditScopeThisOnly edits a single occurrence through an exception
	EditScopeThisOnly EditScope = "this-only"
	// EditScopeThisAndFuture splits the series at the target occurrence
	EditScopeThisAndFuture EditScope = "this-and-future"
	// EditScopeAll edits the series definition
	EditScopeAll EditScope = "all"
)

// Valid reports whether the scope is one of the known values.
func (s EditScope) Valid() bool {
	switch s {
	case EditScopeThisOnly, EditScopeThisAndFuture, EditScopeAll:
		return true
	}
	return false
}

// SeriesPatch is a field-level patch. Absent options leave the field untouched.
type SeriesPatch struct {
	Title           mo.Option[string]
	Description     mo.Option[string]
	Location        mo.Option[string]
	URL             mo.Option[string]
	StartTime       mo.Option[time.Time]
	EndTime         mo.Option[time.Time]
	AllDay          mo.Option[bool]
	Recurrence      mo.Option[RecurrenceRule]
	ReminderOffsets mo.Option[[]int]

	// Cancelled turns a this-only edit into an occurrence cancellation and a
	// this-and-future edit into a truncation of the series.
	Cancelled          mo.Option[bool]
	CancellationReason mo.Option[string]
}

// IsEmpty reports whether the patch changes nothing.
func (p SeriesPatch) IsEmpty() bool {
	return p.Title.IsAbsent() &&
		p.Description.IsAbsent() &&
		p.Location.IsAbsent() &&
		p.URL.IsAbsent() &&
		p.StartTime.IsAbsent() &&
		p.EndTime.IsAbsent() &&
		p.AllDay.IsAbsent() &&
		p.Recurrence.IsAbsent() &&
		p.ReminderOffsets.IsAbsent() &&
		p.Cancelled.IsAbsent() &&
		p.CancellationReason.IsAbsent()
}

// ChangesTiming reports whether the patch moves occurrences or changes the rule.
func (p SeriesPatch) ChangesTiming() bool {
	return p.StartTime.IsPresent() || p.EndTime.IsPresent() || p.AllDay.IsPresent() || p.Recurrence.IsPresent()
}

// HasSeriesOnlyFields reports whether the patch touches fields that cannot
// vary per occurrence.
func (p SeriesPatch) HasSeriesOnlyFields() bool {
	return p.AllDay.IsPresent() || p.Recurrence.IsPresent() || p.ReminderOffsets.IsPresent()
}

// IsCancellation reports whether the patch cancels its target.
func (p SeriesPatch) IsCancellation() bool {
	return p.Cancelled.OrEmpty()
}

// EditSeriesRequest is the input of a scoped series edit.
type EditSeriesRequest struct {
	SeriesUID       string
	Scope           EditScope
	OccurrenceIndex *int
	Patch           SeriesPatch
	ExpectedVersion uint64
}

// EditResult reports the outcome of a scoped series edit.
type EditResult struct {
	SeriesUID    string  `json:"series_uid"`
	Version      uint64  `json:"-"`
	VersionToken string  `json:"version"`
	NewSeriesUID *string `json:"new_series_uid,omitempty"`
}

// CreateSeriesRequest is the input of series creation.
type CreateSeriesRequest struct {
	OrganizationUID string
	CreatedBy       string
	Title           string
	Description     string
	Location        string
	URL             string
	StartTime       time.Time
	EndTime         time.Time
	AllDay          bool
	Recurrence      RecurrenceRule
	ReminderOffsets []int
	Attendees       []*Attendee
}

// SetAttendanceRequest is the input of an attendance answer.
type SetAttendanceRequest struct {
	SeriesUID       string
	UserID          string
	Scope           AttendanceScope
	OccurrenceIndex *int
	Status          AttendanceStatus
}
