// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
)

// GetOccurrences returns the effective occurrences of a series intersecting
// the requested window, with attendance resolved for every attendee.
func (s *AgendaService) GetOccurrences(ctx context.Context, req models.GetOccurrencesRequest) ([]models.EffectiveOccurrence, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", req.SeriesUID))

	ws, we := req.WindowStart.UTC(), req.WindowEnd.UTC()
	if ws.IsZero() || we.IsZero() || !we.After(ws) {
		return nil, domain.NewValidationError("window end must be after window start")
	}
	if we.Sub(ws) > s.Config.maxWindow() {
		return nil, domain.NewValidationError(fmt.Sprintf("window is wider than %s", s.Config.maxWindow()))
	}

	agg, err := s.SeriesRepository.LoadAggregate(ctx, req.SeriesUID)
	if err != nil {
		return nil, err
	}

	occurrences := s.effectiveInWindow(agg, ws, we)
	recurrence.Attach(occurrences, agg.Attendees, agg.Overrides, req.RequestingUserID)

	slog.DebugContext(ctx, "expanded occurrences", "count", len(occurrences))
	return occurrences, nil
}

// effectiveInWindow overlays exceptions on the nominal occurrences and keeps
// those whose effective time intersects the window. Occurrences moved into
// the window from a nominal slot outside it are included, and occurrences
// moved out of it are dropped.
func (s *AgendaService) effectiveInWindow(agg *models.SeriesAggregate, ws, we time.Time) []models.EffectiveOccurrence {
	series := agg.Series
	nominal := s.Evaluator.Expand(series.Recurrence, series.StartTime, series.EndTime, ws, we)

	present := make(map[int]bool, len(nominal))
	for _, n := range nominal {
		present[n.Index] = true
	}
	for _, ex := range agg.Exceptions {
		if present[ex.OccurrenceIndex] || ex.IsCancelled || !ex.ShiftsTime() {
			continue
		}
		n, ok := s.Evaluator.OccurrenceAt(series.Recurrence, series.StartTime, series.EndTime, ex.OccurrenceIndex)
		if !ok {
			continue
		}
		start, end := recurrence.ShiftedTimes(n, ex)
		if recurrence.Intersects(start, end, ws, we) {
			nominal = append(nominal, n)
			present[n.Index] = true
		}
	}
	slices.SortFunc(nominal, func(a, b models.NominalOccurrence) int {
		return cmp.Compare(a.Index, b.Index)
	})

	effective := recurrence.Overlay(series, nominal, agg.Exceptions)
	return slices.DeleteFunc(effective, func(o models.EffectiveOccurrence) bool {
		return !recurrence.Intersects(o.Start, o.End, ws, we)
	})
}
