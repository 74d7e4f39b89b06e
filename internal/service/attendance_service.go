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
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
)

// splitByUser separates one user's overrides from everyone else's.
func splitByUser(overrides []*models.AttendanceOverride, userID string) (own, others []*models.AttendanceOverride) {
	for _, o := range overrides {
		if o.UserID == userID {
			own = append(own, o)
		} else {
			others = append(others, o)
		}
	}
	return own, others
}

// SetAttendance records an attendee's answer for one occurrence, for an
// occurrence and every later one, or as the series default.
//
// Attendance rows do not advance the series version, so answering never
// invalidates an organizer's pending edit.
func (s *AgendaService) SetAttendance(ctx context.Context, req *models.SetAttendanceRequest) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if req == nil {
		return domain.NewValidationError("request is required")
	}
	if req.UserID == "" {
		return domain.NewValidationError("user id is required")
	}
	if !req.Status.Valid() {
		return domain.NewValidationError(fmt.Sprintf("unknown attendance status %q", req.Status))
	}
	switch req.Scope {
	case models.AttendanceScopeSeries:
	case models.AttendanceScopeThis, models.AttendanceScopeThisAndFuture:
		if req.OccurrenceIndex == nil {
			return domain.NewInvalidScopeError(fmt.Sprintf("attendance scope %s requires an occurrence index", req.Scope))
		}
	default:
		return domain.NewValidationError(fmt.Sprintf("unknown attendance scope %q", req.Scope))
	}

	ctx = logging.AppendCtx(ctx, slog.String("series_uid", req.SeriesUID))
	ctx = logging.AppendCtx(ctx, slog.String("scope", string(req.Scope)))

	var event *models.ChangeEvent
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		event = nil
		agg, err := tx.LoadAggregate(ctx, req.SeriesUID)
		if err != nil {
			return err
		}
		series := agg.Series
		attendee := agg.Attendee(req.UserID)
		if attendee == nil {
			return domain.NewNotFoundError(fmt.Sprintf("user %s is not an attendee of series %s", req.UserID, req.SeriesUID))
		}

		var nominal models.NominalOccurrence
		if req.OccurrenceIndex != nil && req.Scope != models.AttendanceScopeSeries {
			var ok bool
			nominal, ok = s.Evaluator.OccurrenceAt(series.Recurrence, series.StartTime, series.EndTime, *req.OccurrenceIndex)
			if !ok {
				return domain.NewInvalidScopeError(fmt.Sprintf("occurrence %d does not exist", *req.OccurrenceIndex))
			}
		}

		now := s.Config.now()
		own, others := splitByUser(agg.Overrides, req.UserID)

		switch req.Scope {
		case models.AttendanceScopeThis:
			replaced := false
			for i, o := range own {
				if o.OccurrenceIndex == nominal.Index {
					c := o.Clone()
					c.Status = req.Status
					c.UpdatedAt = &now
					own[i] = c
					replaced = true
				}
			}
			if !replaced {
				own = append(own, &models.AttendanceOverride{
					SeriesUID:       series.UID,
					UserID:          req.UserID,
					OccurrenceIndex: nominal.Index,
					Status:          req.Status,
					UpdatedAt:       &now,
				})
			}
			if err := tx.SaveOverrides(ctx, series.UID, append(others, own...)); err != nil {
				return err
			}

		case models.AttendanceScopeThisAndFuture:
			updated := attendee.Clone()
			own = recurrence.ApplyFromOccurrence(updated, own, nominal.Index, req.Status, now)
			if err := tx.SaveAttendees(ctx, series.UID, replaceAttendee(agg.Attendees, updated)); err != nil {
				return err
			}
			if err := tx.SaveOverrides(ctx, series.UID, append(others, own...)); err != nil {
				return err
			}

		case models.AttendanceScopeSeries:
			updated := attendee.Clone()
			updated.Status = req.Status
			if updated.HasFuture() && updated.FutureStatus == updated.Status {
				updated.ClearFuture()
			}
			if err := tx.SaveAttendees(ctx, series.UID, replaceAttendee(agg.Attendees, updated)); err != nil {
				return err
			}
		}

		if req.Status == models.AttendanceDeclined && series.CreatedBy != "" && series.CreatedBy != req.UserID {
			e := s.newEvent(models.ChangeAttendanceDeclined, series, []string{series.CreatedBy})
			if req.Scope != models.AttendanceScopeSeries {
				e = occurrenceEvent(e, nominal)
			}
			e.ActorUserID = req.UserID
			event = &e
		}
		return nil
	})
	s.metrics.record(ctx, "set_attendance", err)
	if err != nil {
		return err
	}

	if event != nil {
		s.notify(ctx, *event)
	}
	return nil
}

func replaceAttendee(attendees []*models.Attendee, updated *models.Attendee) []*models.Attendee {
	out := make([]*models.Attendee, 0, len(attendees))
	for _, a := range attendees {
		if a.UserID == updated.UserID {
			out = append(out, updated)
			continue
		}
		out = append(out, a)
	}
	return out
}

// ResetAttendance puts a user back on the series default for one occurrence,
// or for every occurrence when index is nil.
func (s *AgendaService) ResetAttendance(ctx context.Context, seriesUID, userID string, index *int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", seriesUID))

	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, seriesUID)
		if err != nil {
			return err
		}
		attendee := agg.Attendee(userID)
		if attendee == nil {
			return domain.NewNotFoundError(fmt.Sprintf("user %s is not an attendee of series %s", userID, seriesUID))
		}

		own, others := splitByUser(agg.Overrides, userID)
		updated := attendee.Clone()
		kept := recurrence.ResetAnswers(updated, own, index, s.Config.now())

		if updated.HasFuture() != attendee.HasFuture() {
			if err := tx.SaveAttendees(ctx, seriesUID, replaceAttendee(agg.Attendees, updated)); err != nil {
				return err
			}
		}
		if overridesEqual(own, kept) {
			return nil
		}
		return tx.SaveOverrides(ctx, seriesUID, append(others, kept...))
	})
	s.metrics.record(ctx, "reset_attendance", err)
	return err
}

func overridesEqual(a, b []*models.AttendanceOverride) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]models.AttendanceStatus, len(a))
	for _, o := range a {
		seen[o.OccurrenceIndex] = o.Status
	}
	for _, o := range b {
		if status, ok := seen[o.OccurrenceIndex]; !ok || status != o.Status {
			return false
		}
	}
	return true
}
