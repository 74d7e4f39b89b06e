// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

func TestReminderService_DueReminders(t *testing.T) {
	ctx := context.Background()
	a := newTestAgenda(t)
	reminders := NewReminderService(a.svc)
	require.True(t, reminders.ServiceReady())

	agg, err := a.svc.CreateSeries(ctx, &models.CreateSeriesRequest{
		CreatedBy:       "organizer",
		Title:           "Standup",
		StartTime:       firstMonday,
		EndTime:         firstMonday.Add(15 * time.Minute),
		Recurrence:      weekly(models.NeverEnds()),
		ReminderOffsets: []int{60, 10},
		Attendees:       []*models.Attendee{attendee("alice", ""), attendee("bob", "")},
	})
	require.NoError(t, err)
	uid := agg.Series.UID

	// a series without reminders is never scanned for occurrences
	a.create(t, weekly(models.NeverEnds()), attendee("carol", ""))

	require.NoError(t, a.svc.SetAttendance(ctx, &models.SetAttendanceRequest{
		SeriesUID: uid, UserID: "bob", Scope: models.AttendanceScopeThis,
		OccurrenceIndex: index(1), Status: models.AttendanceDeclined,
	}))
	_, err = a.svc.CancelOccurrence(ctx, uid, 2, "holiday")
	require.NoError(t, err)

	t.Run("both offsets of the first occurrence", func(t *testing.T) {
		events, err := reminders.DueReminders(ctx, firstMonday.Add(-2*time.Hour), firstMonday)
		require.NoError(t, err)
		require.Len(t, events, 2)

		fired := map[int]time.Time{}
		for _, e := range events {
			assert.Equal(t, models.ChangeReminder, e.Kind)
			assert.Equal(t, uid, e.SeriesUID)
			assert.Equal(t, []string{"alice", "bob"}, e.UserIDs)
			require.NotNil(t, e.OccurrenceIndex)
			assert.Equal(t, 0, *e.OccurrenceIndex)
			require.NotNil(t, e.OccurrenceStart)
			assert.Equal(t, firstMonday, *e.OccurrenceStart)
			require.NotNil(t, e.ReminderOffset)
			fired[*e.ReminderOffset] = e.OccurredAt
		}
		assert.Equal(t, map[int]time.Time{
			10: firstMonday.Add(-10 * time.Minute),
			60: firstMonday.Add(-time.Hour),
		}, fired)
		assert.NotEqual(t, events[0].DedupKey(), events[1].DedupKey())
	})

	t.Run("window is open at since and closed at until", func(t *testing.T) {
		tenBefore := firstMonday.Add(-10 * time.Minute)

		events, err := reminders.DueReminders(ctx, tenBefore, firstMonday)
		require.NoError(t, err)
		assert.Empty(t, events)

		events, err = reminders.DueReminders(ctx, firstMonday.Add(-time.Hour), tenBefore)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, 10, *events[0].ReminderOffset)
	})

	t.Run("declined attendees are skipped", func(t *testing.T) {
		start := firstMonday.Add(weeks(1))
		events, err := reminders.DueReminders(ctx, start.Add(-15*time.Minute), start)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, []string{"alice"}, events[0].UserIDs)
	})

	t.Run("cancelled occurrences are skipped", func(t *testing.T) {
		start := firstMonday.Add(weeks(2))
		events, err := reminders.DueReminders(ctx, start.Add(-2*time.Hour), start)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("empty window", func(t *testing.T) {
		events, err := reminders.DueReminders(ctx, firstMonday, firstMonday)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("dispatch sends the events", func(t *testing.T) {
		a.sender.Calls = nil
		n, err := reminders.Dispatch(ctx, firstMonday.Add(-2*time.Hour), firstMonday)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, a.sender.EventsOfKind(models.ChangeReminder), 2)
	})

	t.Run("cancelled series are skipped", func(t *testing.T) {
		version := a.version(t, uid)
		_, err := a.svc.CancelSeries(ctx, uid, "", version)
		require.NoError(t, err)

		events, err := reminders.DueReminders(ctx, firstMonday.Add(-2*time.Hour), firstMonday)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestReminderService_NotReady(t *testing.T) {
	_, err := NewReminderService(nil).DueReminders(context.Background(), firstMonday, firstMonday.Add(time.Hour))
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
}

func TestReminderService_SplitInFlight(t *testing.T) {
	ctx := context.Background()
	a := newTestAgenda(t)
	reminders := NewReminderService(a.svc)

	agg, err := a.svc.CreateSeries(ctx, &models.CreateSeriesRequest{
		Title:           "Standup",
		StartTime:       firstMonday,
		EndTime:         firstMonday.Add(15 * time.Minute),
		Recurrence:      weekly(models.NeverEnds()),
		ReminderOffsets: []int{10},
		Attendees:       []*models.Attendee{attendee("alice", "")},
	})
	require.NoError(t, err)
	parentUID := agg.Series.UID

	// the child is written first and the parent truncated afterwards
	splitAt := firstMonday.Add(weeks(3))
	child := agg.Series.Clone()
	child.UID = "child-series"
	child.SplitFromUID = parentUID
	child.SplitAt = &splitAt
	child.StartTime = splitAt
	child.EndTime = splitAt.Add(15 * time.Minute)
	child.Version = 1
	require.NoError(t, a.svc.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		if err := tx.CreateSeries(ctx, child); err != nil {
			return err
		}
		return tx.SaveAttendees(ctx, child.UID, []*models.Attendee{attendee("alice", "")})
	}))

	since, until := splitAt.Add(-time.Hour), splitAt.Add(weeks(1))
	seriesOf := func(events []models.ChangeEvent) []string {
		var uids []string
		for _, e := range events {
			uids = append(uids, e.SeriesUID)
		}
		return uids
	}

	t.Run("parent keeps the reminders until it is truncated", func(t *testing.T) {
		events, err := reminders.DueReminders(ctx, since, until)
		require.NoError(t, err)
		assert.Equal(t, []string{parentUID, parentUID}, seriesOf(events))
	})

	t.Run("child takes over once the parent ends before the split", func(t *testing.T) {
		require.NoError(t, a.svc.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
			parent, err := tx.LoadAggregate(ctx, parentUID)
			if err != nil {
				return err
			}
			series := parent.Series.Clone()
			series.Recurrence.End = models.EndsAfter(3)
			previous := a.svc.bump(series)
			return tx.SaveSeries(ctx, series, previous)
		}))

		events, err := reminders.DueReminders(ctx, since, until)
		require.NoError(t, err)
		assert.Equal(t, []string{child.UID, child.UID}, seriesOf(events))
		for i, e := range events {
			require.NotNil(t, e.OccurrenceIndex)
			assert.Equal(t, i, *e.OccurrenceIndex)
		}
	})

	t.Run("a committed split sends each occurrence once", func(t *testing.T) {
		b := newTestAgenda(t)
		created, err := b.svc.CreateSeries(ctx, &models.CreateSeriesRequest{
			Title:           "Standup",
			StartTime:       firstMonday,
			EndTime:         firstMonday.Add(15 * time.Minute),
			Recurrence:      weekly(models.NeverEnds()),
			ReminderOffsets: []int{10},
			Attendees:       []*models.Attendee{attendee("alice", "")},
		})
		require.NoError(t, err)
		_, err = b.svc.EditSeries(ctx, &models.EditSeriesRequest{
			SeriesUID: created.Series.UID, Scope: models.EditScopeThisAndFuture, OccurrenceIndex: index(3),
			Patch: titlePatch("Renamed"), ExpectedVersion: 1,
		})
		require.NoError(t, err)

		events, err := NewReminderService(b.svc).DueReminders(ctx, firstMonday.Add(-time.Hour), firstMonday.Add(weeks(6)))
		require.NoError(t, err)
		starts := map[time.Time]int{}
		for _, e := range events {
			starts[*e.OccurrenceStart]++
		}
		assert.Len(t, starts, 7)
		for start, n := range starts {
			assert.Equal(t, 1, n, start)
		}
	})
}
