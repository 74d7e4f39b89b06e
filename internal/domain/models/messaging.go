// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"time"
)

// NATS wildcard subjects that the agenda service handles messages about.
const (
	// AgendaAPIQueue is the queue group name for the agenda API.
	// The subject is of the form: lfx.agenda-api.queue
	AgendaAPIQueue = "lfx.agenda-api.queue"
)

// NATS request/reply subjects served by the agenda service.
const (
	// CreateSeriesSubject creates a series.
	// The subject is of the form: lfx.agenda-api.create_series
	CreateSeriesSubject = "lfx.agenda-api.create_series"

	// GetSeriesSubject returns a series definition with its version token.
	// The subject is of the form: lfx.agenda-api.get_series
	GetSeriesSubject = "lfx.agenda-api.get_series"

	// GetOccurrencesSubject expands the effective occurrences of a series in a window.
	// The subject is of the form: lfx.agenda-api.get_occurrences
	GetOccurrencesSubject = "lfx.agenda-api.get_occurrences"

	// EditSeriesSubject applies a scoped edit.
	// The subject is of the form: lfx.agenda-api.edit_series
	EditSeriesSubject = "lfx.agenda-api.edit_series"

	// CancelOccurrenceSubject cancels one occurrence.
	// The subject is of the form: lfx.agenda-api.cancel_occurrence
	CancelOccurrenceSubject = "lfx.agenda-api.cancel_occurrence"

	// CancelSeriesSubject cancels a whole series.
	// The subject is of the form: lfx.agenda-api.cancel_series
	CancelSeriesSubject = "lfx.agenda-api.cancel_series"

	// SetAttendanceSubject records an attendance answer.
	// The subject is of the form: lfx.agenda-api.set_attendance
	SetAttendanceSubject = "lfx.agenda-api.set_attendance"

	// ResetAttendanceSubject clears attendance overrides.
	// The subject is of the form: lfx.agenda-api.reset_attendance
	ResetAttendanceSubject = "lfx.agenda-api.reset_attendance"

	// AddAttendeesSubject adds attendees to a series.
	// The subject is of the form: lfx.agenda-api.add_attendees
	AddAttendeesSubject = "lfx.agenda-api.add_attendees"

	// RemoveAttendeeSubject removes an attendee from a series.
	// The subject is of the form: lfx.agenda-api.remove_attendee
	RemoveAttendeeSubject = "lfx.agenda-api.remove_attendee"

	// ListSeriesSubject lists the stored series definitions.
	// The subject is of the form: lfx.agenda-api.list_series
	ListSeriesSubject = "lfx.agenda-api.list_series"

	// ResetOccurrenceSubject removes the exception of one occurrence.
	// The subject is of the form: lfx.agenda-api.reset_occurrence
	ResetOccurrenceSubject = "lfx.agenda-api.reset_occurrence"

	// ExportICSSubject renders a series as an iCalendar document.
	// The subject is of the form: lfx.agenda-api.export_ics
	ExportICSSubject = "lfx.agenda-api.export_ics"
)

// ChangeEventKind is the kind of change event consumed by the notifier.
type ChangeEventKind string

const (
	ChangeInvited             ChangeEventKind = "Invited"
	ChangeSeriesUpdated       ChangeEventKind = "SeriesUpdated"
	ChangeSeriesCancelled     ChangeEventKind = "SeriesCancelled"
	ChangeOccurrenceUpdated   ChangeEventKind = "OccurrenceUpdated"
	ChangeOccurrenceCancelled ChangeEventKind = "OccurrenceCancelled"
	ChangeReminder            ChangeEventKind = "Reminder"
	ChangeAddedToEvent        ChangeEventKind = "AddedToEvent"
	ChangeRemovedFromEvent    ChangeEventKind = "RemovedFromEvent"
	ChangeAttendanceDeclined  ChangeEventKind = "AttendanceDeclined"
)

// changeSubjectNames maps each kind onto the suffix of its NATS subject.
var changeSubjectNames = map[ChangeEventKind]string{
	ChangeInvited:             "invited",
	ChangeSeriesUpdated:       "series_updated",
	ChangeSeriesCancelled:     "series_cancelled",
	ChangeOccurrenceUpdated:   "occurrence_updated",
	ChangeOccurrenceCancelled: "occurrence_cancelled",
	ChangeReminder:            "reminder",
	ChangeAddedToEvent:        "added_to_event",
	ChangeRemovedFromEvent:    "removed_from_event",
	ChangeAttendanceDeclined:  "attendance_declined",
}

// ChangeEventSubjectPrefix is the prefix of every change event subject.
// The subject is of the form: lfx.agenda.<kind>
const ChangeEventSubjectPrefix = "lfx.agenda."

// Subject returns the NATS subject the event kind is published on.
func (k ChangeEventKind) Subject() string {
	name, ok := changeSubjectNames[k]
	if !ok {
		name = "unknown"
	}
	return ChangeEventSubjectPrefix + name
}

// ChangeScope tells the notifier whether a change covers a series or one occurrence.
type ChangeScope string

const (
	ChangeScopeSeries     ChangeScope = "series"
	ChangeScopeOccurrence ChangeScope = "occurrence"
)

// ChangeEvent is a structured change handed to the external notifier.
type ChangeEvent struct {
	Kind            ChangeEventKind `json:"kind"`
	Scope           ChangeScope     `json:"scope"`
	SeriesUID       string          `json:"series_uid"`
	OccurrenceIndex *int            `json:"occurrence_index,omitempty"`
	NewSeriesUID    string          `json:"new_series_uid,omitempty"`
	Title           string          `json:"title,omitempty"`
	UserIDs         []string        `json:"user_ids"`
	ActorUserID     string          `json:"actor_user_id,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	Version         uint64          `json:"version,omitempty"`
	OccurrenceStart *time.Time      `json:"occurrence_start,omitempty"`
	ReminderOffset  *int            `json:"reminder_offset_minutes,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// DedupKey identifies the event for at-least-once consumers.
func (e ChangeEvent) DedupKey() string {
	key := fmt.Sprintf("%s:%s:v%d", e.Kind, e.SeriesUID, e.Version)
	if e.OccurrenceIndex != nil {
		key += fmt.Sprintf(":o%d", *e.OccurrenceIndex)
	}
	if e.ReminderOffset != nil {
		key += fmt.Sprintf(":r%d", *e.ReminderOffset)
	}
	return key
}
