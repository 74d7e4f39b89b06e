// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
)

// CancelOccurrence cancels one occurrence. Cancelling an occurrence that is
// already cancelled, directly or through its series, changes nothing and
// emits no event.
func (s *AgendaService) CancelOccurrence(ctx context.Context, seriesUID string, index int, reason string) (*models.EditResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", seriesUID))
	ctx = logging.AppendCtx(ctx, slog.Int("occurrence_index", index))

	var (
		current *models.Series
		event   *models.ChangeEvent
	)
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		event = nil
		agg, err := tx.LoadAggregate(ctx, seriesUID)
		if err != nil {
			return err
		}
		series := agg.Series.Clone()
		current = series

		nominal, ok := s.Evaluator.OccurrenceAt(series.Recurrence, series.StartTime, series.EndTime, index)
		if !ok {
			return domain.NewInvalidScopeError(fmt.Sprintf("occurrence %d does not exist", index))
		}

		existing := agg.ExceptionAt(index)
		if series.IsCancelled || (existing != nil && existing.IsCancelled) {
			return nil
		}

		now := s.Config.now()
		ex := existing.Clone()
		if ex == nil {
			ex = &models.Exception{SeriesUID: series.UID, OccurrenceIndex: index, OriginalStartTime: nominal.Start}
		}
		ex.IsCancelled = true
		ex.CancellationReason = reason
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

		e := occurrenceEvent(s.newEvent(models.ChangeOccurrenceCancelled, series, agg.AttendeeUserIDs()), nominal)
		e.Reason = reason
		event = &e
		return nil
	})
	s.metrics.record(ctx, "cancel_occurrence", err)
	if err != nil {
		return nil, err
	}

	if event == nil {
		slog.DebugContext(ctx, "occurrence already cancelled")
		return result(current), nil
	}
	slog.InfoContext(ctx, "cancelled occurrence")
	s.notify(ctx, *event)
	return result(current), nil
}

// CancelSeries cancels every occurrence of a series while keeping its history.
func (s *AgendaService) CancelSeries(ctx context.Context, seriesUID, reason string, expectedVersion uint64) (*models.EditResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if expectedVersion == 0 {
		return nil, domain.NewValidationError("expected version is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", seriesUID))

	var (
		current *models.Series
		event   *models.ChangeEvent
	)
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		event = nil
		agg, err := tx.LoadAggregate(ctx, seriesUID)
		if err != nil {
			return err
		}
		if err := checkVersion(agg.Series, expectedVersion); err != nil {
			return err
		}
		series := agg.Series.Clone()
		current = series
		if series.IsCancelled {
			return nil
		}

		series.IsCancelled = true
		series.CancellationReason = reason
		previous := s.bump(series)
		if err := tx.SaveSeries(ctx, series, previous); err != nil {
			return err
		}

		e := s.newEvent(models.ChangeSeriesCancelled, series, agg.AttendeeUserIDs())
		e.Reason = reason
		event = &e
		return nil
	})
	s.metrics.record(ctx, "cancel_series", err)
	if err != nil {
		slog.WarnContext(ctx, "series cancellation rejected", logging.ErrKey, err)
		return nil, err
	}

	if event == nil {
		slog.DebugContext(ctx, "series already cancelled")
		return result(current), nil
	}
	slog.InfoContext(ctx, "cancelled series")
	s.notify(ctx, *event)
	return result(current), nil
}

// ResetOccurrence removes the exception of an occurrence so it follows the
// series again.
func (s *AgendaService) ResetOccurrence(ctx context.Context, seriesUID string, index int, expectedVersion uint64) (*models.EditResult, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if expectedVersion == 0 {
		return nil, domain.NewValidationError("expected version is required")
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", seriesUID))
	ctx = logging.AppendCtx(ctx, slog.Int("occurrence_index", index))

	var (
		updated *models.Series
		event   models.ChangeEvent
	)
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, seriesUID)
		if err != nil {
			return err
		}
		if err := checkVersion(agg.Series, expectedVersion); err != nil {
			return err
		}
		existing := agg.ExceptionAt(index)
		if existing == nil {
			return domain.NewNotFoundError(fmt.Sprintf("occurrence %d of series %s has no exception", index, seriesUID))
		}

		exceptions := make([]*models.Exception, 0, len(agg.Exceptions))
		for _, e := range agg.Exceptions {
			if e.OccurrenceIndex != index {
				exceptions = append(exceptions, e)
			}
		}
		if err := tx.SaveExceptions(ctx, seriesUID, exceptions); err != nil {
			return err
		}
		series := agg.Series.Clone()
		previous := s.bump(series)
		if err := tx.SaveSeries(ctx, series, previous); err != nil {
			return err
		}
		updated = series

		nominal := models.NominalOccurrence{Index: index, Start: existing.OriginalStartTime}
		event = occurrenceEvent(s.newEvent(models.ChangeOccurrenceUpdated, series, agg.AttendeeUserIDs()), nominal)
		return nil
	})
	s.metrics.record(ctx, "reset_occurrence", err)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, event)
	return result(updated), nil
}
