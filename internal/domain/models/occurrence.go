// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// NominalOccurrence is one instance implied by a recurrence rule before any
// exception is applied.
type NominalOccurrence struct {
	Index int       `json:"occurrence_index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EffectiveOccurrence is a nominal occurrence after exceptions and attendance
// have been resolved. It is derived per request and never stored.
type EffectiveOccurrence struct {
	SeriesUID          string                      `json:"series_uid"`
	OccurrenceIndex    int                         `json:"occurrence_index"`
	Start              time.Time                   `json:"start"`
	End                time.Time                   `json:"end"`
	OriginalStart      time.Time                   `json:"original_start"`
	AllDay             bool                        `json:"all_day"`
	Title              string                      `json:"title"`
	Description        string                      `json:"description,omitempty"`
	Location           string                      `json:"location,omitempty"`
	URL                string                      `json:"url,omitempty"`
	IsCancelled        bool                        `json:"is_cancelled"`
	IsModified         bool                        `json:"is_modified"`
	CancellationReason string                      `json:"cancellation_reason,omitempty"`
	Attendance         map[string]AttendanceStatus `json:"attendance,omitempty"`
	// AttendanceStatus is the requesting user's effective status, empty when
	// the requester is not an attendee.
	AttendanceStatus AttendanceStatus `json:"attendance_status,omitempty"`
}

// SeriesAggregate is a series with every row that hangs off it. It is the
// unit of consistency for reads and transactional writes.
type SeriesAggregate struct {
	Series     *Series               `json:"series"`
	Exceptions []*Exception          `json:"exceptions,omitempty"`
	Attendees  []*Attendee           `json:"attendees,omitempty"`
	Overrides  []*AttendanceOverride `json:"overrides,omitempty"`
}

// ExceptionAt returns the exception for the occurrence index, or nil.
func (a *SeriesAggregate) ExceptionAt(index int) *Exception {
	for _, e := range a.Exceptions {
		if e.OccurrenceIndex == index {
			return e
		}
	}
	return nil
}

// Attendee returns the attendee with the given user ID, or nil.
func (a *SeriesAggregate) Attendee(userID string) *Attendee {
	for _, at := range a.Attendees {
		if at.UserID == userID {
			return at
		}
	}
	return nil
}

// AttendeeUserIDs returns the user IDs of every attendee in stored order.
func (a *SeriesAggregate) AttendeeUserIDs() []string {
	ids := make([]string, 0, len(a.Attendees))
	for _, at := range a.Attendees {
		ids = append(ids, at.UserID)
	}
	return ids
}

// Clone returns a deep copy of the aggregate.
func (a *SeriesAggregate) Clone() *SeriesAggregate {
	if a == nil {
		return nil
	}
	c := &SeriesAggregate{Series: a.Series.Clone()}
	for _, e := range a.Exceptions {
		c.Exceptions = append(c.Exceptions, e.Clone())
	}
	for _, at := range a.Attendees {
		c.Attendees = append(c.Attendees, at.Clone())
	}
	for _, o := range a.Overrides {
		c.Overrides = append(c.Overrides, o.Clone())
	}
	return c
}

// UTC converts every timestamp of the aggregate to UTC in place. Decoders
// that restore times in the local zone call it after reading.
func (a *SeriesAggregate) UTC() {
	utc := func(t *time.Time) {
		if t != nil {
			*t = t.UTC()
		}
	}
	if s := a.Series; s != nil {
		utc(&s.StartTime)
		utc(&s.EndTime)
		utc(s.Recurrence.End.Until)
		utc(s.CreatedAt)
		utc(s.UpdatedAt)
	}
	for _, e := range a.Exceptions {
		utc(&e.OriginalStartTime)
		utc(e.ModifiedStartTime)
		utc(e.ModifiedEndTime)
		utc(e.UpdatedAt)
	}
	for _, at := range a.Attendees {
		utc(at.AddedAt)
	}
	for _, o := range a.Overrides {
		utc(o.UpdatedAt)
	}
}

// GetOccurrencesRequest asks for the effective occurrences of a series that
// intersect [WindowStart, WindowEnd).
type GetOccurrencesRequest struct {
	SeriesUID        string
	WindowStart      time.Time
	WindowEnd        time.Time
	RequestingUserID string
}
