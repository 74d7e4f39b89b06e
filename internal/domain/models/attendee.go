// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// AttendanceStatus is an attendee's participation answer. The string values are wire-stable.
type AttendanceStatus string

const (
	// AttendancePending means the attendee has not answered yet
	AttendancePending AttendanceStatus = "Pending"
	// AttendanceAccepted means the attendee will attend
	AttendanceAccepted AttendanceStatus = "Accepted"
	// AttendanceTentative means the attendee might attend
	AttendanceTentative AttendanceStatus = "Tentative"
	// AttendanceDeclined means the attendee will not attend
	AttendanceDeclined AttendanceStatus = "Declined"
)

// Valid reports whether the status is one of the known values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePending, AttendanceAccepted, AttendanceTentative, AttendanceDeclined:
		return true
	}
	return false
}

// AttendanceScope is the breadth of an attendance change.
type AttendanceScope string

const (
	// AttendanceScopeThis applies to a single occurrence
	AttendanceScopeThis AttendanceScope = "this"
	// AttendanceScopeThisAndFuture applies to an occurrence and every later one
	AttendanceScopeThisAndFuture AttendanceScope = "thisAndFuture"
	// AttendanceScopeSeries changes the series-default status
	AttendanceScopeSeries AttendanceScope = "series"
)

// Attendee is a member of a series. One per (SeriesUID, UserID).
type Attendee struct {
	SeriesUID  string           `json:"series_uid"`
	UserID     string           `json:"user_id"`
	Email      string           `json:"email,omitempty"`
	Name       string           `json:"name,omitempty"`
	IsOptional bool             `json:"is_optional"`
	Status     AttendanceStatus `json:"status"` // series-default status
	// FutureStatus answers occurrence FutureFromIndex and every later one.
	// It is how a this-and-future answer is kept without one override row
	// per remaining occurrence. Overrides still win over it.
	FutureStatus    AttendanceStatus `json:"future_status,omitempty"`
	FutureFromIndex *int             `json:"future_from_index,omitempty"`
	AddedAt         *time.Time       `json:"added_at,omitempty"`
}

// AttendanceOverride replaces an attendee's series-default status for one
// occurrence, keyed by (SeriesUID, UserID, OccurrenceIndex).
type AttendanceOverride struct {
	SeriesUID       string           `json:"series_uid"`
	UserID          string           `json:"user_id"`
	OccurrenceIndex int              `json:"occurrence_index"`
	Status          AttendanceStatus `json:"status"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

// Clone returns a copy of the attendee.
func (a *Attendee) Clone() *Attendee {
	if a == nil {
		return nil
	}
	c := *a
	c.AddedAt = cloneTime(a.AddedAt)
	if a.FutureFromIndex != nil {
		from := *a.FutureFromIndex
		c.FutureFromIndex = &from
	}
	return &c
}

// DefaultAt returns the attendee's answer for an occurrence that has no
// override: the this-and-future answer from its start on, else the series
// default.
func (a *Attendee) DefaultAt(index int) AttendanceStatus {
	if a.FutureFromIndex != nil && index >= *a.FutureFromIndex {
		return a.FutureStatus
	}
	return a.Status
}

// HasFuture reports whether a this-and-future answer is recorded.
func (a *Attendee) HasFuture() bool {
	return a.FutureFromIndex != nil
}

// ClearFuture drops the this-and-future answer.
func (a *Attendee) ClearFuture() {
	a.FutureStatus = ""
	a.FutureFromIndex = nil
}

// Clone returns a copy of the override.
func (o *AttendanceOverride) Clone() *AttendanceOverride {
	if o == nil {
		return nil
	}
	c := *o
	c.UpdatedAt = cloneTime(o.UpdatedAt)
	return &c
}
