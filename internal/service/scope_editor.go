// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
)

// EditSeries applies a patch to one occurrence, to an occurrence and every
// later one, or to the whole series.
func (s *AgendaService) EditSeries(ctx context.Context, req *models.EditSeriesRequest) (*models.EditResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.NewValidationError("request is required")
	}
	if !req.Scope.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown edit scope %q", req.Scope))
	}
	if req.Patch.IsEmpty() {
		return nil, domain.NewValidationError("patch changes nothing")
	}
	if req.ExpectedVersion == 0 {
		return nil, domain.NewValidationError("expected version is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("series_uid", req.SeriesUID))
	ctx = logging.AppendCtx(ctx, slog.String("scope", string(req.Scope)))

	var (
		res *models.EditResult
		err error
	)
	switch req.Scope {
	case models.EditScopeAll:
		res, err = s.editAll(ctx, req)
	case models.EditScopeThisOnly:
		res, err = s.editThisOnly(ctx, req)
	case models.EditScopeThisAndFuture:
		res, err = s.editThisAndFuture(ctx, req)
	}
	s.metrics.record(ctx, "edit_series", err)
	if err != nil {
		slog.WarnContext(ctx, "series edit rejected", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "edited series", "version", res.Version)
	return res, nil
}

// applySeriesPatch applies the series-level fields of a patch and re-validates
// the result. Anchors are re-derived when the first start or the rule moves.
func (s *AgendaService) applySeriesPatch(series *models.Series, patch models.SeriesPatch) error {
	if v, ok := patch.Title.Get(); ok {
		series.Title = v
	}
	if v, ok := patch.Description.Get(); ok {
		series.Description = v
	}
	if v, ok := patch.Location.Get(); ok {
		series.Location = v
	}
	if v, ok := patch.URL.Get(); ok {
		series.URL = v
	}
	if v, ok := patch.AllDay.Get(); ok {
		series.AllDay = v
	}
	if v, ok := patch.ReminderOffsets.Get(); ok {
		series.ReminderOffsets = normalizeReminderOffsets(v)
	}

	duration := series.Duration()
	if v, ok := patch.StartTime.Get(); ok {
		series.StartTime = normalizeInstant(v)
		series.EndTime = series.StartTime.Add(duration)
	}
	if v, ok := patch.EndTime.Get(); ok {
		series.EndTime = normalizeInstant(v)
	}

	rule := series.Recurrence
	if v, ok := patch.Recurrence.Get(); ok {
		rule = v
		if rule.Type == models.RecurrenceNone && rule.Interval == 0 {
			rule.Interval = 1
		}
	} else if patch.StartTime.IsPresent() {
		rule.DayOfMonth = 0
		rule.WeekOfMonth = 0
	}
	series.Recurrence = recurrence.Normalize(rule, series.StartTime)

	if err := validateSeriesFields(series); err != nil {
		return err
	}
	return s.Evaluator.Validate(series.Recurrence, series.StartTime, series.EndTime)
}

func (s *AgendaService) editAll(ctx context.Context, req *models.EditSeriesRequest) (*models.EditResult, error) {
	if req.Patch.Cancelled.IsPresent() || req.Patch.CancellationReason.IsPresent() {
		return nil, domain.NewValidationError("cancel a whole series with the cancel series operation")
	}

	var (
		updated   *models.Series
		attendees []string
	)
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, req.SeriesUID)
		if err != nil {
			return err
		}
		if err := checkVersion(agg.Series, req.ExpectedVersion); err != nil {
			return err
		}
		if agg.Series.IsCancelled {
			return domain.NewInvalidScopeError(fmt.Sprintf("series %s is cancelled", req.SeriesUID))
		}

		series := agg.Series.Clone()
		if err := s.applySeriesPatch(series, req.Patch); err != nil {
			return err
		}
		previous := s.bump(series)
		if err := tx.SaveSeries(ctx, series, previous); err != nil {
			return err
		}
		updated = series
		attendees = agg.AttendeeUserIDs()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, s.newEvent(models.ChangeSeriesUpdated, updated, attendees))
	return result(updated), nil
}

func (s *AgendaService) editThisOnly(ctx context.Context, req *models.EditSeriesRequest) (*models.EditResult, error) {
	if req.OccurrenceIndex == nil {
		return nil, domain.NewInvalidScopeError("a this-only edit requires an occurrence index")
	}
	if req.Patch.HasSeriesOnlyFields() {
		return nil, domain.NewInvalidScopeError("recurrence, all-day and reminder changes apply to the whole series")
	}
	index := *req.OccurrenceIndex
	patch := req.Patch

	var (
		updated   *models.Series
		event     models.ChangeEvent
		attendees []string
	)
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, req.SeriesUID)
		if err != nil {
			return err
		}
		if err := checkVersion(agg.Series, req.ExpectedVersion); err != nil {
			return err
		}
		if agg.Series.IsCancelled {
			return domain.NewInvalidScopeError(fmt.Sprintf("series %s is cancelled", req.SeriesUID))
		}
		series := agg.Series.Clone()
		nominal, ok := s.Evaluator.OccurrenceAt(series.Recurrence, series.StartTime, series.EndTime, index)
		if !ok {
			return domain.NewInvalidScopeError(fmt.Sprintf("occurrence %d does not exist", index))
		}

		ex := agg.ExceptionAt(index).Clone()
		if ex == nil {
			ex = &models.Exception{
				SeriesUID:         series.UID,
				OccurrenceIndex:   index,
				OriginalStartTime: nominal.Start,
			}
		}
		if v, ok := patch.Title.Get(); ok {
			ex.Title = &v
		}
		if v, ok := patch.Description.Get(); ok {
			ex.Description = &v
		}
		if v, ok := patch.Location.Get(); ok {
			ex.Location = &v
		}
		if v, ok := patch.URL.Get(); ok {
			ex.URL = &v
		}
		if v, ok := patch.StartTime.Get(); ok {
			t := normalizeInstant(v)
			ex.ModifiedStartTime = &t
		}
		if v, ok := patch.EndTime.Get(); ok {
			t := normalizeInstant(v)
			ex.ModifiedEndTime = &t
		}
		if v, ok := patch.Cancelled.Get(); ok {
			ex.IsCancelled = v
			ex.CancellationReason = ""
			if v {
				ex.CancellationReason = patch.CancellationReason.OrEmpty()
			}
		} else if v, ok := patch.CancellationReason.Get(); ok && ex.IsCancelled {
			ex.CancellationReason = v
		}

		start, end := recurrence.ShiftedTimes(nominal, ex)
		if end.Before(start) {
			return domain.NewValidationError("occurrence end time is before its start time")
		}
		now := s.Config.now()
		ex.UpdatedAt = &now

		exceptions := make([]*models.Exception, 0, len(agg.Exceptions)+1)
		for _, e := range agg.Exceptions {
			if e.OccurrenceIndex != index {
				exceptions = append(exceptions, e)
			}
		}
		exceptions = append(exceptions, ex)
		if err := tx.SaveExceptions(ctx, series.UID, exceptions); err != nil {
			return err
		}

		previous := s.bump(series)
		if err := tx.SaveSeries(ctx, series, previous); err != nil {
			return err
		}

		updated = series
		attendees = agg.AttendeeUserIDs()
		kind := models.ChangeOccurrenceUpdated
		if patch.IsCancellation() {
			kind = models.ChangeOccurrenceCancelled
		}
		event = occurrenceEvent(s.newEvent(kind, series, attendees), nominal)
		event.Reason = ex.CancellationReason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, event)
	return result(updated), nil
}

// truncateBefore ends the series right before occurrence cut. A count-bounded
// series keeps cut occurrences, any other series ends on the nominal start of
// the occurrence before cut.
func truncateBefore(series *models.Series, cut int, previous models.NominalOccurrence) {
	if series.Recurrence.End.Kind == models.EndAfterCount {
		series.Recurrence.End = models.EndsAfter(cut)
		return
	}
	series.Recurrence.End = models.EndsOn(previous.Start)
}

func splitExceptions(exceptions []*models.Exception, cut int) (kept, moved []*models.Exception) {
	for _, e := range exceptions {
		if e.OccurrenceIndex < cut {
			kept = append(kept, e)
			continue
		}
		c := e.Clone()
		c.OccurrenceIndex -= cut
		moved = append(moved, c)
	}
	return kept, moved
}

func splitOverrides(overrides []*models.AttendanceOverride, cut int) (kept, moved []*models.AttendanceOverride) {
	for _, o := range overrides {
		if o.OccurrenceIndex < cut {
			kept = append(kept, o)
			continue
		}
		c := o.Clone()
		c.OccurrenceIndex -= cut
		moved = append(moved, c)
	}
	return kept, moved
}

// splitAttendees re-keys this-and-future answers at cut. The original keeps
// only answers that start before cut. In the new series an answer that
// already applied at cut becomes the series default.
func splitAttendees(attendees []*models.Attendee, cut int) (kept, moved []*models.Attendee, keptChanged bool) {
	for _, a := range attendees {
		k := a.Clone()
		if k.HasFuture() && *k.FutureFromIndex >= cut {
			k.ClearFuture()
			keptChanged = true
		}
		kept = append(kept, k)

		m := a.Clone()
		if m.HasFuture() {
			if from := *m.FutureFromIndex - cut; from > 0 {
				m.FutureFromIndex = &from
			} else {
				m.Status = m.FutureStatus
				m.ClearFuture()
			}
		}
		moved = append(moved, m)
	}
	return kept, moved, keptChanged
}

func (s *AgendaService) editThisAndFuture(ctx context.Context, req *models.EditSeriesRequest) (*models.EditResult, error) {
	if req.OccurrenceIndex == nil {
		return nil, domain.NewInvalidScopeError("a this-and-future edit requires an occurrence index")
	}
	cut := *req.OccurrenceIndex
	if cut == 0 {
		return nil, domain.NewInvalidScopeError("a this-and-future edit of the first occurrence is an edit of the whole series")
	}
	cancelling := req.Patch.IsCancellation()

	var (
		truncated    *models.Series
		newSeriesUID string
		event        models.ChangeEvent
	)
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, req.SeriesUID)
		if err != nil {
			return err
		}
		if err := checkVersion(agg.Series, req.ExpectedVersion); err != nil {
			return err
		}
		original := agg.Series
		if original.IsCancelled {
			return domain.NewInvalidScopeError(fmt.Sprintf("series %s is cancelled", req.SeriesUID))
		}

		atCut, ok := s.Evaluator.OccurrenceAt(original.Recurrence, original.StartTime, original.EndTime, cut)
		if !ok {
			return domain.NewInvalidScopeError(fmt.Sprintf("occurrence %d does not exist", cut))
		}
		beforeCut, _ := s.Evaluator.OccurrenceAt(original.Recurrence, original.StartTime, original.EndTime, cut-1)

		keptExceptions, movedExceptions := splitExceptions(agg.Exceptions, cut)
		keptOverrides, movedOverrides := splitOverrides(agg.Overrides, cut)
		keptAttendees, movedAttendees, attendeesChanged := splitAttendees(agg.Attendees, cut)
		attendees := agg.AttendeeUserIDs()

		if !cancelling {
			now := s.Config.now()
			next := original.Clone()
			next.UID = uuid.NewString()
			next.SplitFromUID = original.UID
			splitAt := atCut.Start
			next.SplitAt = &splitAt
			next.StartTime = atCut.Start
			next.EndTime = atCut.End
			next.Version = 1
			next.CreatedAt = &now
			next.UpdatedAt = &now
			if next.Recurrence.End.Kind == models.EndAfterCount {
				next.Recurrence.End = models.EndsAfter(next.Recurrence.End.Count - cut)
			}
			if err := s.applySeriesPatch(next, req.Patch); err != nil {
				return err
			}

			if err := tx.CreateSeries(ctx, next); err != nil {
				return err
			}
			for _, a := range movedAttendees {
				a.SeriesUID = next.UID
			}
			if err := tx.SaveAttendees(ctx, next.UID, movedAttendees); err != nil {
				return err
			}
			if err := tx.SaveExceptions(ctx, next.UID, movedExceptions); err != nil {
				return err
			}
			if err := tx.SaveOverrides(ctx, next.UID, movedOverrides); err != nil {
				return err
			}
			newSeriesUID = next.UID
		}

		series := original.Clone()
		truncateBefore(series, cut, beforeCut)
		previous := s.bump(series)
		if err := tx.SaveSeries(ctx, series, previous); err != nil {
			return err
		}
		if err := tx.SaveExceptions(ctx, series.UID, keptExceptions); err != nil {
			return err
		}
		if err := tx.SaveOverrides(ctx, series.UID, keptOverrides); err != nil {
			return err
		}
		if attendeesChanged {
			if err := tx.SaveAttendees(ctx, series.UID, keptAttendees); err != nil {
				return err
			}
		}
		truncated = series

		if cancelling {
			event = occurrenceEvent(s.newEvent(models.ChangeSeriesCancelled, series, attendees), atCut)
			event.Reason = req.Patch.CancellationReason.OrEmpty()
		} else {
			event = occurrenceEvent(s.newEvent(models.ChangeSeriesUpdated, series, attendees), atCut)
			event.NewSeriesUID = newSeriesUID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, event)
	res := result(truncated)
	if newSeriesUID != "" {
		res.NewSeriesUID = &newSeriesUID
	}
	return res, nil
}
