// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package calendar

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/utils"
)

var (
	exportNow   = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	exportStart = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
)

func exportAggregate() *models.SeriesAggregate {
	week := 7 * 24 * time.Hour
	return &models.SeriesAggregate{
		Series: &models.Series{
			UID:             "series-1",
			Title:           "Weekly sync",
			Description:     "Status round",
			StartTime:       exportStart,
			EndTime:         exportStart.Add(time.Hour),
			Recurrence:      models.RecurrenceRule{Type: models.RecurrenceWeekly, Interval: 1, End: models.EndsAfter(5)},
			ReminderOffsets: []int{15, 60},
			CreatedBy:       "organizer",
			Version:         3,
		},
		Exceptions: []*models.Exception{
			{SeriesUID: "series-1", OccurrenceIndex: 1, OriginalStartTime: exportStart.Add(week), IsCancelled: true},
			{
				SeriesUID:         "series-1",
				OccurrenceIndex:   2,
				OriginalStartTime: exportStart.Add(2 * week),
				ModifiedStartTime: utils.Ptr(exportStart.Add(2*week + 2*time.Hour)),
				ModifiedEndTime:   utils.Ptr(exportStart.Add(2*week + 3*time.Hour)),
				Title:             utils.Ptr("Planning"),
			},
		},
		Attendees: []*models.Attendee{
			{SeriesUID: "series-1", UserID: "alice", Email: "alice@example.com", Name: "Alice", Status: models.AttendanceAccepted},
			{SeriesUID: "series-1", UserID: "bob", IsOptional: true, Status: models.AttendancePending},
		},
		Overrides: []*models.AttendanceOverride{
			{SeriesUID: "series-1", UserID: "alice", OccurrenceIndex: 2, Status: models.AttendanceDeclined},
		},
	}
}

func parse(t *testing.T, out string) []*ics.VEvent {
	t.Helper()
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	return cal.Events()
}

func value(e *ics.VEvent, p ics.ComponentProperty) string {
	if prop := e.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

func TestExporter_Export(t *testing.T) {
	x := &Exporter{Now: func() time.Time { return exportNow }}

	out, err := x.Export(exportAggregate())
	require.NoError(t, err)
	assert.Contains(t, out, "PRODID:"+ICSProdID)
	assert.Contains(t, out, "METHOD:PUBLISH")

	events := parse(t, out)
	require.Len(t, events, 2)
	master, moved := events[0], events[1]

	t.Run("master event", func(t *testing.T) {
		assert.Equal(t, "series-1@agenda.lfx.linuxfoundation.org", master.Id())
		assert.Equal(t, "20260105T100000Z", value(master, ics.ComponentPropertyDtStart))
		assert.Equal(t, "20260105T110000Z", value(master, ics.ComponentPropertyDtEnd))
		assert.Equal(t, "20260101T090000Z", value(master, ics.ComponentPropertyDtstamp))
		assert.Equal(t, "3", value(master, ics.ComponentPropertySequence))
		assert.Equal(t, "CONFIRMED", value(master, ics.ComponentPropertyStatus))
		assert.Equal(t, UserURIPrefix+"organizer", value(master, ics.ComponentPropertyOrganizer))

		rule := value(master, ics.ComponentPropertyRrule)
		assert.Contains(t, rule, "FREQ=WEEKLY")
		assert.Contains(t, rule, "COUNT=5")
		assert.NotContains(t, rule, "DTSTART")

		exdates := master.GetProperties(ics.ComponentPropertyExdate)
		require.Len(t, exdates, 1)
		assert.Equal(t, "20260112T100000Z", exdates[0].Value)
	})

	t.Run("attendees carry role and participation", func(t *testing.T) {
		attendees := master.Attendees()
		require.Len(t, attendees, 2)

		assert.Equal(t, "alice@example.com", attendees[0].Email())
		assert.Equal(t, ics.ParticipationStatusAccepted, attendees[0].ParticipationStatus())
		assert.Equal(t, []string{"REQ-PARTICIPANT"}, attendees[0].ICalParameters[string(ics.ParameterRole)])
		assert.Equal(t, []string{"Alice"}, attendees[0].ICalParameters[string(ics.ParameterCn)])

		assert.Equal(t, UserURIPrefix+"bob", attendees[1].Value)
		assert.Equal(t, ics.ParticipationStatusNeedsAction, attendees[1].ParticipationStatus())
		assert.Equal(t, []string{"OPT-PARTICIPANT"}, attendees[1].ICalParameters[string(ics.ParameterRole)])
	})

	t.Run("one alarm per reminder offset", func(t *testing.T) {
		alarms := master.Alarms()
		require.Len(t, alarms, 2)
		assert.Equal(t, "-PT15M", alarmValue(alarms[0], ics.ComponentPropertyTrigger))
		assert.Equal(t, "-PT60M", alarmValue(alarms[1], ics.ComponentPropertyTrigger))
	})

	t.Run("moved occurrence", func(t *testing.T) {
		assert.Equal(t, master.Id(), moved.Id())
		assert.Equal(t, "20260119T100000Z", value(moved, ics.ComponentPropertyRecurrenceId))
		assert.Equal(t, "20260119T120000Z", value(moved, ics.ComponentPropertyDtStart))
		assert.Equal(t, "20260119T130000Z", value(moved, ics.ComponentPropertyDtEnd))
		assert.Equal(t, "Planning", value(moved, ics.ComponentPropertySummary))
		assert.Equal(t, "Status round", value(moved, ics.ComponentPropertyDescription))
		assert.Nil(t, moved.GetProperty(ics.ComponentPropertyRrule))

		attendees := moved.Attendees()
		require.Len(t, attendees, 2)
		assert.Equal(t, ics.ParticipationStatusDeclined, attendees[0].ParticipationStatus())
	})
}

func alarmValue(a *ics.VAlarm, p ics.ComponentProperty) string {
	if prop := a.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

func TestExporter_Export_Variants(t *testing.T) {
	x := &Exporter{Now: func() time.Time { return exportNow }}

	t.Run("cancelled series", func(t *testing.T) {
		agg := exportAggregate()
		agg.Series.IsCancelled = true

		out, err := x.Export(agg)
		require.NoError(t, err)
		events := parse(t, out)
		require.NotEmpty(t, events)
		assert.Equal(t, "CANCELLED", value(events[0], ics.ComponentPropertyStatus))
	})

	t.Run("single occurrence has no rule", func(t *testing.T) {
		agg := exportAggregate()
		agg.Series.Recurrence = models.RecurrenceRule{Type: models.RecurrenceNone}
		agg.Exceptions = nil

		out, err := x.Export(agg)
		require.NoError(t, err)
		events := parse(t, out)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].GetProperty(ics.ComponentPropertyRrule))
	})

	t.Run("all-day series uses dates", func(t *testing.T) {
		agg := exportAggregate()
		day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		agg.Series.AllDay = true
		agg.Series.StartTime = day
		agg.Series.EndTime = day.Add(24 * time.Hour)
		agg.Exceptions = []*models.Exception{
			{SeriesUID: "series-1", OccurrenceIndex: 1, OriginalStartTime: day.Add(7 * 24 * time.Hour), IsCancelled: true},
		}

		out, err := x.Export(agg)
		require.NoError(t, err)
		events := parse(t, out)
		require.Len(t, events, 1)

		start := events[0].GetProperty(ics.ComponentPropertyDtStart)
		require.NotNil(t, start)
		assert.Equal(t, "20260105", start.Value)
		assert.Equal(t, []string{"DATE"}, start.ICalParameters[string(ics.ParameterValue)])

		exdates := events[0].GetProperties(ics.ComponentPropertyExdate)
		require.Len(t, exdates, 1)
		assert.Equal(t, "20260112", exdates[0].Value)
	})

	t.Run("untouched exceptions are skipped", func(t *testing.T) {
		agg := exportAggregate()
		agg.Exceptions = []*models.Exception{
			{SeriesUID: "series-1", OccurrenceIndex: 3, OriginalStartTime: exportStart.Add(3 * 7 * 24 * time.Hour)},
		}

		out, err := x.Export(agg)
		require.NoError(t, err)
		assert.Len(t, parse(t, out), 1)
	})

	t.Run("missing series", func(t *testing.T) {
		_, err := x.Export(&models.SeriesAggregate{})
		assert.Error(t, err)
	})
}
