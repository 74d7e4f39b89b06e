// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package recurrence

import (
	"cmp"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// Resolve returns the override for the occurrence if one exists, else the
// series-default status.
func Resolve(defaultStatus models.AttendanceStatus, overridesByOccurrence map[int]models.AttendanceStatus, index int) models.AttendanceStatus {
	if status, ok := overridesByOccurrence[index]; ok {
		return status
	}
	return defaultStatus
}

// OverridesByUser indexes overrides as userID -> occurrence index -> status.
func OverridesByUser(overrides []*models.AttendanceOverride) map[string]map[int]models.AttendanceStatus {
	out := make(map[string]map[int]models.AttendanceStatus)
	for _, o := range overrides {
		byIndex, ok := out[o.UserID]
		if !ok {
			byIndex = make(map[int]models.AttendanceStatus)
			out[o.UserID] = byIndex
		}
		byIndex[o.OccurrenceIndex] = o.Status
	}
	return out
}

// Attach resolves every attendee's status for each occurrence in place. The
// requesting user's status is copied onto the occurrence when they attend.
// An answer that departs from the attendee's series default, through an
// override or a this-and-future answer, marks the occurrence modified.
func Attach(occurrences []models.EffectiveOccurrence, attendees []*models.Attendee, overrides []*models.AttendanceOverride, requestingUserID string) {
	byUser := OverridesByUser(overrides)

	for i := range occurrences {
		occ := &occurrences[i]
		if len(attendees) > 0 {
			occ.Attendance = make(map[string]models.AttendanceStatus, len(attendees))
		}
		for _, at := range attendees {
			status := Resolve(at.DefaultAt(occ.OccurrenceIndex), byUser[at.UserID], occ.OccurrenceIndex)
			occ.Attendance[at.UserID] = status
			if status != at.Status {
				occ.IsModified = true
			}
			if at.UserID == requestingUserID {
				occ.AttendanceStatus = status
			}
		}
	}
}

// ApplyFromOccurrence answers status for occurrence cut and every later one.
//
// It resolves the same as an override on every remaining occurrence, but the
// answer is kept on the attendee as a this-and-future answer so unbounded
// series need no enumeration. The series default and overrides before cut are
// untouched and overrides at or after cut are dropped. An earlier
// this-and-future answer with a different status is written out as overrides
// between its start and cut. overrides must only hold the attendee's own
// rows; the full replacement set is returned.
func ApplyFromOccurrence(attendee *models.Attendee, overrides []*models.AttendanceOverride, cut int, status models.AttendanceStatus, now time.Time) []*models.AttendanceOverride {
	explicit := make(map[int]bool, len(overrides))
	out := make([]*models.AttendanceOverride, 0, len(overrides))
	for _, o := range overrides {
		if o.OccurrenceIndex < cut {
			explicit[o.OccurrenceIndex] = true
			out = append(out, o.Clone())
		}
	}

	from := cut
	if prev := attendee.FutureFromIndex; prev != nil && *prev < cut {
		switch {
		case attendee.FutureStatus == status:
			from = *prev
		case attendee.FutureStatus != attendee.Status:
			for i := *prev; i < cut; i++ {
				if explicit[i] {
					continue
				}
				out = append(out, &models.AttendanceOverride{
					SeriesUID:       attendee.SeriesUID,
					UserID:          attendee.UserID,
					OccurrenceIndex: i,
					Status:          attendee.FutureStatus,
					UpdatedAt:       &now,
				})
			}
		}
	}

	if status == attendee.Status {
		attendee.ClearFuture()
	} else {
		attendee.FutureStatus = status
		attendee.FutureFromIndex = &from
	}

	slices.SortFunc(out, func(a, b *models.AttendanceOverride) int {
		return cmp.Compare(a.OccurrenceIndex, b.OccurrenceIndex)
	})
	return out
}

// ResetAnswers puts an attendee back on the series default for one occurrence,
// or for every occurrence when index is nil. overrides must only hold the
// attendee's own rows; the replacement set is returned.
func ResetAnswers(attendee *models.Attendee, overrides []*models.AttendanceOverride, index *int, now time.Time) []*models.AttendanceOverride {
	if index == nil {
		attendee.ClearFuture()
		return nil
	}

	out := make([]*models.AttendanceOverride, 0, len(overrides))
	for _, o := range overrides {
		if o.OccurrenceIndex != *index {
			out = append(out, o.Clone())
		}
	}
	// A this-and-future answer still covers the occurrence, so the default
	// has to be written back explicitly.
	if attendee.DefaultAt(*index) != attendee.Status {
		out = append(out, &models.AttendanceOverride{
			SeriesUID:       attendee.SeriesUID,
			UserID:          attendee.UserID,
			OccurrenceIndex: *index,
			Status:          attendee.Status,
			UpdatedAt:       &now,
		})
		slices.SortFunc(out, func(a, b *models.AttendanceOverride) int {
			return cmp.Compare(a.OccurrenceIndex, b.OccurrenceIndex)
		})
	}
	return out
}
