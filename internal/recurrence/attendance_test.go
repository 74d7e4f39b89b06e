// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

func TestResolve(t *testing.T) {
	overrides := map[int]models.AttendanceStatus{3: models.AttendanceDeclined}

	for i := 0; i < 6; i++ {
		want := models.AttendanceTentative
		if i == 3 {
			want = models.AttendanceDeclined
		}
		assert.Equal(t, want, Resolve(models.AttendanceTentative, overrides, i), "occurrence %d", i)
	}
	assert.Equal(t, models.AttendanceAccepted, Resolve(models.AttendanceAccepted, nil, 0))
}

func TestAttach(t *testing.T) {
	series, nominal := weeklySeries()
	occs := Overlay(series, nominal, nil)
	attendees := []*models.Attendee{
		{SeriesUID: series.UID, UserID: "alice", Status: models.AttendanceTentative},
		{SeriesUID: series.UID, UserID: "bob", Status: models.AttendanceAccepted},
	}
	overrides := []*models.AttendanceOverride{
		{SeriesUID: series.UID, UserID: "alice", OccurrenceIndex: 3, Status: models.AttendanceDeclined},
		{SeriesUID: series.UID, UserID: "bob", OccurrenceIndex: 1, Status: models.AttendanceAccepted},
	}

	Attach(occs, attendees, overrides, "alice")

	require.Len(t, occs, 4)
	for _, occ := range occs {
		assert.Len(t, occ.Attendance, 2)
		assert.Equal(t, models.AttendanceAccepted, occ.Attendance["bob"])
	}
	assert.Equal(t, models.AttendanceTentative, occs[0].AttendanceStatus)
	assert.Equal(t, models.AttendanceDeclined, occs[3].AttendanceStatus)
	assert.Equal(t, models.AttendanceDeclined, occs[3].Attendance["alice"])
	assert.True(t, occs[3].IsModified)
	assert.False(t, occs[1].IsModified, "an override equal to the default is not a deviation")
}

func TestAttach_RequesterNotAttending(t *testing.T) {
	series, nominal := weeklySeries()
	occs := Overlay(series, nominal, nil)

	Attach(occs, []*models.Attendee{{UserID: "alice", Status: models.AttendanceAccepted}}, nil, "mallory")

	for _, occ := range occs {
		assert.Empty(t, occ.AttendanceStatus)
		assert.Equal(t, models.AttendanceAccepted, occ.Attendance["alice"])
	}
}

func TestAttach_ThisAndFutureAnswer(t *testing.T) {
	series, nominal := weeklySeries()
	occs := Overlay(series, nominal, nil)
	attendees := []*models.Attendee{{
		SeriesUID:       series.UID,
		UserID:          "alice",
		Status:          models.AttendanceAccepted,
		FutureStatus:    models.AttendanceDeclined,
		FutureFromIndex: ptr(2),
	}}
	overrides := []*models.AttendanceOverride{
		{SeriesUID: series.UID, UserID: "alice", OccurrenceIndex: 3, Status: models.AttendanceTentative},
	}

	Attach(occs, attendees, overrides, "alice")

	require.Len(t, occs, 4)
	want := []models.AttendanceStatus{models.AttendanceAccepted, models.AttendanceAccepted, models.AttendanceDeclined, models.AttendanceTentative}
	for i, occ := range occs {
		assert.Equal(t, want[i], occ.AttendanceStatus, "occurrence %d", i)
		assert.Equal(t, i >= 2, occ.IsModified, "occurrence %d", i)
	}
}

func TestApplyFromOccurrence(t *testing.T) {
	now := utc(2024, time.February, 1, 0, 0)
	const (
		A = models.AttendanceAccepted
		T = models.AttendanceTentative
		D = models.AttendanceDeclined
	)

	tests := []struct {
		name       string
		attendee   models.Attendee
		overrides  []*models.AttendanceOverride
		cut        int
		status     models.AttendanceStatus
		wantRows   map[int]models.AttendanceStatus
		wantFuture *int
	}{
		{
			name:       "earlier occurrences need no rows",
			attendee:   models.Attendee{Status: A},
			cut:        3,
			status:     D,
			wantRows:   map[int]models.AttendanceStatus{},
			wantFuture: ptr(3),
		},
		{
			name:     "keeps earlier overrides and drops later ones",
			attendee: models.Attendee{Status: A},
			overrides: []*models.AttendanceOverride{
				{UserID: "alice", OccurrenceIndex: 1, Status: T},
				{UserID: "alice", OccurrenceIndex: 5, Status: A},
			},
			cut:        2,
			status:     D,
			wantRows:   map[int]models.AttendanceStatus{1: T},
			wantFuture: ptr(2),
		},
		{
			name:       "answering the series default clears the future answer",
			attendee:   models.Attendee{Status: A, FutureStatus: D, FutureFromIndex: ptr(4)},
			overrides:  []*models.AttendanceOverride{{UserID: "alice", OccurrenceIndex: 6, Status: T}},
			cut:        2,
			status:     A,
			wantRows:   map[int]models.AttendanceStatus{},
			wantFuture: nil,
		},
		{
			name:       "a later answer writes out the earlier one up to the cut",
			attendee:   models.Attendee{Status: A, FutureStatus: D, FutureFromIndex: ptr(2)},
			overrides:  []*models.AttendanceOverride{{UserID: "alice", OccurrenceIndex: 3, Status: A}},
			cut:        5,
			status:     T,
			wantRows:   map[int]models.AttendanceStatus{2: D, 3: A, 4: D},
			wantFuture: ptr(5),
		},
		{
			name:       "repeating the earlier answer keeps its start",
			attendee:   models.Attendee{Status: A, FutureStatus: D, FutureFromIndex: ptr(2)},
			cut:        5,
			status:     D,
			wantRows:   map[int]models.AttendanceStatus{},
			wantFuture: ptr(2),
		},
		{
			name:       "an answer before the earlier one replaces it",
			attendee:   models.Attendee{Status: A, FutureStatus: D, FutureFromIndex: ptr(6)},
			cut:        1,
			status:     T,
			wantRows:   map[int]models.AttendanceStatus{},
			wantFuture: ptr(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.attendee
			before.SeriesUID, before.UserID = "series-1", "alice"
			attendee := before.Clone()

			got := ApplyFromOccurrence(attendee, tt.overrides, tt.cut, tt.status, now)

			assert.Equal(t, before.Status, attendee.Status, "the series default is kept")
			assert.Equal(t, tt.wantFuture, attendee.FutureFromIndex)
			gotRows := make(map[int]models.AttendanceStatus, len(got))
			for i, o := range got {
				gotRows[o.OccurrenceIndex] = o.Status
				if i > 0 {
					assert.Less(t, got[i-1].OccurrenceIndex, o.OccurrenceIndex, "sorted by index")
				}
			}
			assert.Equal(t, tt.wantRows, gotRows)

			// Every occurrence before the cut resolves as it did before the
			// change and every occurrence from the cut on resolves to status.
			oldRows := OverridesByUser(tt.overrides)["alice"]
			newRows := OverridesByUser(got)["alice"]
			for i := 0; i < tt.cut+5; i++ {
				after := Resolve(attendee.DefaultAt(i), newRows, i)
				if i < tt.cut {
					assert.Equal(t, Resolve(before.DefaultAt(i), oldRows, i), after, "occurrence %d", i)
				} else {
					assert.Equal(t, tt.status, after, "occurrence %d", i)
				}
			}
		})
	}
}

func TestApplyFromOccurrence_DoesNotMutateInput(t *testing.T) {
	in := []*models.AttendanceOverride{{UserID: "alice", OccurrenceIndex: 0, Status: models.AttendanceTentative}}
	attendee := &models.Attendee{UserID: "alice", Status: models.AttendanceAccepted}

	got := ApplyFromOccurrence(attendee, in, 1, models.AttendanceDeclined, time.Now())
	require.Len(t, got, 1)
	got[0].Status = models.AttendanceDeclined

	assert.Equal(t, models.AttendanceTentative, in[0].Status)
}

func TestResetAnswers(t *testing.T) {
	now := utc(2024, time.February, 1, 0, 0)
	answered := func() (*models.Attendee, []*models.AttendanceOverride) {
		attendee := &models.Attendee{
			SeriesUID: "series-1", UserID: "alice", Status: models.AttendanceAccepted,
			FutureStatus: models.AttendanceDeclined, FutureFromIndex: ptr(3),
		}
		overrides := []*models.AttendanceOverride{
			{SeriesUID: "series-1", UserID: "alice", OccurrenceIndex: 1, Status: models.AttendanceTentative},
		}
		return attendee, overrides
	}

	t.Run("every occurrence", func(t *testing.T) {
		attendee, overrides := answered()

		got := ResetAnswers(attendee, overrides, nil, now)

		assert.Empty(t, got)
		assert.False(t, attendee.HasFuture())
		for i := 0; i < 6; i++ {
			assert.Equal(t, models.AttendanceAccepted, Resolve(attendee.DefaultAt(i), nil, i))
		}
	})

	t.Run("one overridden occurrence", func(t *testing.T) {
		attendee, overrides := answered()

		got := ResetAnswers(attendee, overrides, ptr(1), now)

		assert.Empty(t, got)
		assert.True(t, attendee.HasFuture())
	})

	t.Run("one occurrence under the future answer", func(t *testing.T) {
		attendee, overrides := answered()

		got := ResetAnswers(attendee, overrides, ptr(4), now)

		byIndex := OverridesByUser(got)["alice"]
		assert.Equal(t, map[int]models.AttendanceStatus{1: models.AttendanceTentative, 4: models.AttendanceAccepted}, byIndex)
		assert.Equal(t, models.AttendanceAccepted, Resolve(attendee.DefaultAt(4), byIndex, 4))
		assert.Equal(t, models.AttendanceDeclined, Resolve(attendee.DefaultAt(5), byIndex, 5))
	})
}
