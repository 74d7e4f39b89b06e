// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
)

// ReminderService finds reminders that fall due and hands them to the notifier.
type ReminderService struct {
	agenda *AgendaService
}

// NewReminderService creates a ReminderService over the agenda engine.
func NewReminderService(agenda *AgendaService) *ReminderService {
	return &ReminderService{agenda: agenda}
}

// ServiceReady checks if the service is ready for use.
func (r *ReminderService) ServiceReady() bool {
	return r.agenda != nil && r.agenda.ServiceReady()
}

// DueReminders returns one Reminder event per (occurrence, offset) whose fire
// time, effective start minus offset, lies in (since, until]. Cancelled
// occurrences are skipped, as are attendees who declined the occurrence.
func (r *ReminderService) DueReminders(ctx context.Context, since, until time.Time) ([]models.ChangeEvent, error) {
	if !r.ServiceReady() {
		return nil, domain.NewUnavailableError("reminder service is not available")
	}
	since, until = since.UTC(), until.UTC()
	if !until.After(since) {
		return nil, nil
	}

	all, err := r.agenda.SeriesRepository.ListSeries(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]*models.SeriesAggregate)
	load := func(uid string) (*models.SeriesAggregate, error) {
		if agg, ok := loaded[uid]; ok {
			return agg, nil
		}
		agg, err := r.agenda.SeriesRepository.LoadAggregate(ctx, uid)
		if err != nil {
			return nil, err
		}
		loaded[uid] = agg
		return agg, nil
	}

	var events []models.ChangeEvent
	for _, series := range all {
		if series.IsCancelled || len(series.ReminderOffsets) == 0 {
			continue
		}
		agg, err := load(series.UID)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			return nil, err
		}
		covered, err := r.coveredByParent(agg.Series, load)
		if err != nil {
			return nil, err
		}
		if covered {
			slog.DebugContext(ctx, "skipping reminders of a series whose split is not committed",
				"series_uid", series.UID, "parent_uid", series.SplitFromUID)
			continue
		}
		events = append(events, r.dueForSeries(agg, since, until)...)
	}
	return events, nil
}

// coveredByParent reports whether the series was split from a parent that,
// as loaded in this sweep, still has occurrences from the split point on.
// The parent is only truncated when the split commits, so until then its own
// occurrences carry the reminders. Deciding on the same loaded parent that
// the sweep dispatches from keeps every occurrence on exactly one side.
func (r *ReminderService) coveredByParent(series *models.Series, load func(string) (*models.SeriesAggregate, error)) (bool, error) {
	if series.SplitFromUID == "" || series.SplitAt == nil {
		return false, nil
	}
	parent, err := load(series.SplitFromUID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return false, nil
		}
		return false, err
	}
	p := parent.Series
	if p.IsCancelled {
		return false, nil
	}
	_, ok := r.agenda.Evaluator.NextFrom(p.Recurrence, p.StartTime, p.EndTime, *series.SplitAt)
	return ok, nil
}

func (r *ReminderService) dueForSeries(agg *models.SeriesAggregate, since, until time.Time) []models.ChangeEvent {
	series := agg.Series
	maxOffset := time.Duration(slices.Max(series.ReminderOffsets)) * time.Minute

	// an occurrence is due when since < start-offset <= until
	occurrences := r.agenda.effectiveInWindow(agg, since, until.Add(maxOffset).Add(time.Second))
	recurrence.Attach(occurrences, agg.Attendees, agg.Overrides, "")

	var events []models.ChangeEvent
	for _, occ := range occurrences {
		if occ.IsCancelled {
			continue
		}
		var recipients []string
		for _, a := range agg.Attendees {
			if occ.Attendance[a.UserID] != models.AttendanceDeclined {
				recipients = append(recipients, a.UserID)
			}
		}
		if len(recipients) == 0 {
			continue
		}

		for _, offset := range series.ReminderOffsets {
			fire := occ.Start.Add(-time.Duration(offset) * time.Minute)
			if !fire.After(since) || fire.After(until) {
				continue
			}
			index := occ.OccurrenceIndex
			start := occ.Start
			o := offset
			events = append(events, models.ChangeEvent{
				Kind:            models.ChangeReminder,
				Scope:           models.ChangeScopeOccurrence,
				SeriesUID:       series.UID,
				OccurrenceIndex: &index,
				Title:           occ.Title,
				UserIDs:         slices.Clone(recipients),
				Version:         series.Version,
				OccurrenceStart: &start,
				ReminderOffset:  &o,
				OccurredAt:      fire,
			})
		}
	}
	return events
}

// Dispatch sends every reminder due in (since, until].
func (r *ReminderService) Dispatch(ctx context.Context, since, until time.Time) (int, error) {
	events, err := r.DueReminders(ctx, since, until)
	if err != nil {
		slog.ErrorContext(ctx, "error collecting due reminders", logging.ErrKey, err)
		return 0, err
	}
	r.agenda.notify(ctx, events...)
	return len(events), nil
}
