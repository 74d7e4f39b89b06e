// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/utils"
)

// ICS constants for consistent values across all generated calendars
const (
	ICSProdID   = "-//Linux Foundation//LFX Agenda Service//EN"
	ICALVersion = "2.0"
	ICALScale   = "GREGORIAN"

	// UserURIPrefix identifies attendees that have no email address.
	UserURIPrefix = "urn:lfx:user:"
)

const (
	icsDateTimeUTC = "20060102T150405Z"
	icsDate        = "20060102"
)

// Exporter renders series aggregates as RFC 5545 calendars.
type Exporter struct {
	// Now stamps DTSTAMP. Tests pin it; nil means time.Now.
	Now func() time.Time
}

// NewExporter creates a new exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

func (x *Exporter) now() time.Time {
	if x.Now != nil {
		return x.Now().UTC()
	}
	return time.Now().UTC()
}

var partStats = map[models.AttendanceStatus]ics.ParticipationStatus{
	models.AttendancePending:   ics.ParticipationStatusNeedsAction,
	models.AttendanceAccepted:  ics.ParticipationStatusAccepted,
	models.AttendanceTentative: ics.ParticipationStatusTentative,
	models.AttendanceDeclined:  ics.ParticipationStatusDeclined,
}

// Export renders the series as one master VEVENT carrying the RRULE, with an
// EXDATE per cancelled occurrence and one RECURRENCE-ID VEVENT per moved or
// edited occurrence. SEQUENCE follows the series version.
func (x *Exporter) Export(agg *models.SeriesAggregate) (string, error) {
	if agg == nil || agg.Series == nil {
		return "", fmt.Errorf("series is required")
	}
	series := agg.Series
	stamp := x.now()

	cal := ics.NewCalendar()
	cal.SetProductId(ICSProdID)
	cal.SetVersion(ICALVersion)
	cal.SetCalscale(ICALScale)
	cal.SetMethod(ics.MethodPublish)

	master := cal.AddEvent(eventUID(series))
	x.setCommon(master, series, stamp)
	setTimes(master, series.AllDay, series.StartTime, series.EndTime)
	master.SetSummary(series.Title)
	setOptionalText(master, series.Description, series.Location, series.URL)

	if series.Recurrence.Type != models.RecurrenceNone {
		opt, err := recurrence.RRuleOption(series.Recurrence, series.StartTime)
		if err != nil {
			return "", fmt.Errorf("series %s: %w", series.UID, err)
		}
		// DTSTART is carried by the event itself
		master.AddRrule(opt.RRuleString())
	}

	if series.IsCancelled {
		master.SetStatus(ics.ObjectStatusCancelled)
	} else {
		master.SetStatus(ics.ObjectStatusConfirmed)
	}

	for _, a := range agg.Attendees {
		addAttendee(master, a, a.Status)
	}
	for _, offset := range series.ReminderOffsets {
		alarm := master.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-PT%dM", offset))
		alarm.SetProperty(ics.ComponentPropertyDescription, "Reminder: "+series.Title)
	}

	overrides := recurrence.OverridesByUser(agg.Overrides)
	for _, ex := range agg.Exceptions {
		if ex.IsCancelled {
			if series.AllDay {
				master.AddExdate(ex.OriginalStartTime.UTC().Format(icsDate), valueDate())
			} else {
				master.AddExdate(ex.OriginalStartTime.UTC().Format(icsDateTimeUTC))
			}
			continue
		}
		if !ex.ShiftsTime() && !ex.OverridesFields() {
			continue
		}

		n := models.NominalOccurrence{
			Index: ex.OccurrenceIndex,
			Start: ex.OriginalStartTime,
			End:   ex.OriginalStartTime.Add(series.Duration()),
		}
		start, end := recurrence.ShiftedTimes(n, ex)

		instance := cal.AddEvent(eventUID(series))
		x.setCommon(instance, series, stamp)
		if series.AllDay {
			instance.SetProperty(ics.ComponentPropertyRecurrenceId, ex.OriginalStartTime.UTC().Format(icsDate), valueDate())
		} else {
			instance.SetProperty(ics.ComponentPropertyRecurrenceId, ex.OriginalStartTime.UTC().Format(icsDateTimeUTC))
		}
		setTimes(instance, series.AllDay, start, end)

		instance.SetSummary(utils.ValueOr(ex.Title, series.Title))
		setOptionalText(instance,
			utils.ValueOr(ex.Description, series.Description),
			utils.ValueOr(ex.Location, series.Location),
			utils.ValueOr(ex.URL, series.URL))
		instance.SetStatus(ics.ObjectStatusConfirmed)

		for _, a := range agg.Attendees {
			addAttendee(instance, a, recurrence.Resolve(a.DefaultAt(ex.OccurrenceIndex), overrides[a.UserID], ex.OccurrenceIndex))
		}
	}

	return cal.Serialize(), nil
}

// eventUID keeps the iCalendar UID stable across exports of one series.
func eventUID(series *models.Series) string {
	return series.UID + "@agenda.lfx.linuxfoundation.org"
}

func (x *Exporter) setCommon(e *ics.VEvent, series *models.Series, stamp time.Time) {
	e.SetDtStampTime(stamp)
	e.SetSequence(int(series.Version))
	if series.CreatedAt != nil {
		e.SetCreatedTime(*series.CreatedAt)
	}
	if series.UpdatedAt != nil {
		e.SetModifiedAt(*series.UpdatedAt)
	}
	if series.CreatedBy != "" {
		e.SetProperty(ics.ComponentPropertyOrganizer, UserURIPrefix+series.CreatedBy)
	}
}

func setTimes(e *ics.VEvent, allDay bool, start, end time.Time) {
	if allDay {
		e.SetAllDayStartAt(start.UTC())
		e.SetAllDayEndAt(end.UTC())
		return
	}
	e.SetStartAt(start.UTC())
	e.SetEndAt(end.UTC())
}

func setOptionalText(e *ics.VEvent, description, location, url string) {
	if description != "" {
		e.SetDescription(description)
	}
	if location != "" {
		e.SetLocation(location)
	}
	if url != "" {
		e.SetURL(url)
	}
}

func valueDate() ics.PropertyParameter {
	return ics.WithValue(string(ics.ValueDataTypeDate))
}

func addAttendee(e *ics.VEvent, a *models.Attendee, status models.AttendanceStatus) {
	role := ics.ParticipationRoleReqParticipant
	if a.IsOptional {
		role = ics.ParticipationRoleOptParticipant
	}
	partStat, ok := partStats[status]
	if !ok {
		partStat = ics.ParticipationStatusNeedsAction
	}

	params := []ics.PropertyParameter{
		ics.CalendarUserTypeIndividual,
		role,
		partStat,
		ics.WithRSVP(status == models.AttendancePending),
	}
	if name := strings.TrimSpace(a.Name); name != "" {
		params = append(params, ics.WithCN(name))
	}

	if a.Email != "" {
		e.AddAttendee(a.Email, params...)
		return
	}
	e.AddProperty(ics.ComponentPropertyAttendee, UserURIPrefix+a.UserID, params...)
}
