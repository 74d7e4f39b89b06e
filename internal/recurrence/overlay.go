// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package recurrence

import (
	"cmp"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/utils"
)

// Overlay merges exceptions onto the nominal occurrences of a series and
// returns effective occurrences sorted by effective start.
//
// A series-level cancellation marks every occurrence cancelled with the series
// reason, regardless of the exception flags.
func Overlay(series *models.Series, nominal []models.NominalOccurrence, exceptions []*models.Exception) []models.EffectiveOccurrence {
	byIndex := make(map[int]*models.Exception, len(exceptions))
	for _, ex := range exceptions {
		byIndex[ex.OccurrenceIndex] = ex
	}

	out := make([]models.EffectiveOccurrence, 0, len(nominal))
	for _, n := range nominal {
		occ := models.EffectiveOccurrence{
			SeriesUID:       series.UID,
			OccurrenceIndex: n.Index,
			Start:           n.Start,
			End:             n.End,
			OriginalStart:   n.Start,
			AllDay:          series.AllDay,
			Title:           series.Title,
			Description:     series.Description,
			Location:        series.Location,
			URL:             series.URL,
		}

		if ex, ok := byIndex[n.Index]; ok {
			applyException(&occ, n, ex)
		}

		if series.IsCancelled {
			occ.IsCancelled = true
			occ.CancellationReason = series.CancellationReason
		}

		out = append(out, occ)
	}

	slices.SortStableFunc(out, func(a, b models.EffectiveOccurrence) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.OccurrenceIndex, b.OccurrenceIndex)
	})
	return out
}

func applyException(occ *models.EffectiveOccurrence, n models.NominalOccurrence, ex *models.Exception) {
	occ.Title = utils.ValueOr(ex.Title, occ.Title)
	occ.Description = utils.ValueOr(ex.Description, occ.Description)
	occ.Location = utils.ValueOr(ex.Location, occ.Location)
	occ.URL = utils.ValueOr(ex.URL, occ.URL)
	if ex.OverridesFields() {
		occ.IsModified = true
	}

	// Cancelled occurrences keep their nominal time for display.
	if ex.IsCancelled {
		occ.IsCancelled = true
		occ.CancellationReason = ex.CancellationReason
		return
	}

	if ex.ShiftsTime() {
		occ.Start, occ.End = ShiftedTimes(n, ex)
		occ.IsModified = true
	}
}

// ShiftedTimes returns the effective start and end of a nominal occurrence
// under an exception. Without an explicit end the nominal duration is kept.
func ShiftedTimes(n models.NominalOccurrence, ex *models.Exception) (start, end time.Time) {
	start = n.Start
	if ex.ModifiedStartTime != nil {
		start = ex.ModifiedStartTime.UTC()
	}
	if ex.ModifiedEndTime != nil {
		return start, ex.ModifiedEndTime.UTC()
	}
	return start, start.Add(n.End.Sub(n.Start))
}
