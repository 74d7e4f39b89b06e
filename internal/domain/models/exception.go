// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Exception overrides a single occurrence of a series, keyed by
// (SeriesUID, OccurrenceIndex).
type Exception struct {
	SeriesUID         string     `json:"series_uid"`
	OccurrenceIndex   int        `json:"occurrence_index"`
	OriginalStartTime time.Time  `json:"original_start_time"`
	ModifiedStartTime *time.Time `json:"modified_start_time,omitempty"`
	ModifiedEndTime   *time.Time `json:"modified_end_time,omitempty"`

	// Per-occurrence field overrides from a this-only edit.
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	URL         *string `json:"url,omitempty"`

	IsCancelled        bool       `json:"is_cancelled"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// ShiftsTime reports whether the exception moves the occurrence in time.
func (e *Exception) ShiftsTime() bool {
	return e.ModifiedStartTime != nil || e.ModifiedEndTime != nil
}

// OverridesFields reports whether the exception replaces any descriptive field.
func (e *Exception) OverridesFields() bool {
	return e.Title != nil || e.Description != nil || e.Location != nil || e.URL != nil
}

// Clone returns a deep copy of the exception.
func (e *Exception) Clone() *Exception {
	if e == nil {
		return nil
	}
	c := *e
	c.ModifiedStartTime = cloneTime(e.ModifiedStartTime)
	c.ModifiedEndTime = cloneTime(e.ModifiedEndTime)
	c.UpdatedAt = cloneTime(e.UpdatedAt)
	c.Title = cloneString(e.Title)
	c.Description = cloneString(e.Description)
	c.Location = cloneString(e.Location)
	c.URL = cloneString(e.URL)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
