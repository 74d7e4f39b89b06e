// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/utils"
)

// AgendaService is the agenda engine: reads expand series into effective
// occurrences, and every mutation runs as one repository transaction followed
// by best-effort change events.
type AgendaService struct {
	SeriesRepository domain.SeriesRepository
	EventSender      domain.ChangeEventSender
	Evaluator        *recurrence.Evaluator
	Config           ServiceConfig
	metrics          *serviceMetrics
}

// NewAgendaService creates a new AgendaService.
func NewAgendaService(
	seriesRepository domain.SeriesRepository,
	eventSender domain.ChangeEventSender,
	evaluator *recurrence.Evaluator,
	config ServiceConfig,
) *AgendaService {
	if evaluator == nil {
		evaluator = recurrence.NewEvaluator(0)
	}
	return &AgendaService{
		SeriesRepository: seriesRepository,
		EventSender:      eventSender,
		Evaluator:        evaluator,
		Config:           config,
		metrics:          newServiceMetrics(),
	}
}

// ServiceReady checks if the service is ready for use.
func (s *AgendaService) ServiceReady() bool {
	return s.SeriesRepository != nil &&
		s.EventSender != nil &&
		s.Evaluator != nil
}

func (s *AgendaService) ready(ctx context.Context) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("agenda service is not available")
	}
	return nil
}

// notify hands events to the notifier. Failures are logged and never undo
// the committed change.
func (s *AgendaService) notify(ctx context.Context, events ...models.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	err := s.EventSender.SendChangeEvents(ctx, events...)
	s.metrics.recordEvents(ctx, len(events), err)
	if err != nil {
		slog.ErrorContext(ctx, "error sending change events", logging.ErrKey, err, "count", len(events))
	}
}

func (s *AgendaService) newEvent(kind models.ChangeEventKind, series *models.Series, userIDs []string) models.ChangeEvent {
	if userIDs == nil {
		userIDs = []string{}
	}
	return models.ChangeEvent{
		Kind:       kind,
		Scope:      models.ChangeScopeSeries,
		SeriesUID:  series.UID,
		Title:      series.Title,
		UserIDs:    userIDs,
		Version:    series.Version,
		OccurredAt: s.Config.now(),
	}
}

func occurrenceEvent(e models.ChangeEvent, occ models.NominalOccurrence) models.ChangeEvent {
	index := occ.Index
	start := occ.Start
	e.Scope = models.ChangeScopeOccurrence
	e.OccurrenceIndex = &index
	e.OccurrenceStart = &start
	return e
}

func result(series *models.Series) *models.EditResult {
	return &models.EditResult{
		SeriesUID:    series.UID,
		Version:      series.Version,
		VersionToken: models.EncodeVersion(series.Version),
	}
}

// checkVersion fails with a conflict when the caller edited a stale copy.
func checkVersion(series *models.Series, expected uint64) error {
	if series.Version != expected {
		return domain.NewConflictError(fmt.Sprintf("series %s is at version %d, expected %d",
			series.UID, series.Version, expected))
	}
	return nil
}

// bump advances the row version and update time of a series about to be saved.
func (s *AgendaService) bump(series *models.Series) uint64 {
	previous := series.Version
	now := s.Config.now()
	series.Version++
	series.UpdatedAt = &now
	return previous
}

func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// validateSeriesFields checks the fields of a series definition other than its rule.
func validateSeriesFields(series *models.Series) error {
	if strings.TrimSpace(series.Title) == "" {
		return domain.NewValidationError("title is required")
	}
	if len(series.Title) > constants.MaxTitleLength {
		return domain.NewValidationError(fmt.Sprintf("title must be at most %d characters", constants.MaxTitleLength))
	}
	if series.StartTime.IsZero() || series.EndTime.IsZero() {
		return domain.NewValidationError("start and end time are required")
	}
	if series.EndTime.Before(series.StartTime) {
		return domain.NewValidationError("end time is before start time")
	}
	if series.Duration() > constants.MaxOccurrenceDuration {
		return domain.NewValidationError("an occurrence cannot last longer than a week")
	}
	return validateReminderOffsets(series.ReminderOffsets)
}

func validateReminderOffsets(offsets []int) error {
	if len(offsets) > constants.MaxReminderOffsets {
		return domain.NewValidationError(fmt.Sprintf("at most %d reminders are allowed", constants.MaxReminderOffsets))
	}
	for _, o := range offsets {
		if o < 0 || o > constants.MaxReminderOffsetMinutes {
			return domain.NewValidationError(fmt.Sprintf("reminder offset %d is outside 0..%d minutes", o, constants.MaxReminderOffsetMinutes))
		}
	}
	return nil
}

// normalizeReminderOffsets returns the offsets as a sorted set.
func normalizeReminderOffsets(offsets []int) []int {
	if len(offsets) == 0 {
		return nil
	}
	out := slices.Clone(offsets)
	slices.Sort(out)
	return slices.Compact(out)
}

func (s *AgendaService) normalizeAttendees(seriesUID string, attendees []*models.Attendee) ([]*models.Attendee, error) {
	now := s.Config.now()
	seen := make(map[string]bool, len(attendees))
	out := make([]*models.Attendee, 0, len(attendees))
	for _, a := range attendees {
		if a == nil || strings.TrimSpace(a.UserID) == "" {
			return nil, domain.NewValidationError("attendee user id is required")
		}
		if seen[a.UserID] {
			return nil, domain.NewValidationError(fmt.Sprintf("attendee %s is listed twice", a.UserID))
		}
		seen[a.UserID] = true

		c := a.Clone()
		c.SeriesUID = seriesUID
		if c.Status == "" {
			c.Status = models.AttendancePending
		}
		if !c.Status.Valid() {
			return nil, domain.NewValidationError(fmt.Sprintf("unknown attendance status %q", c.Status))
		}
		if c.AddedAt == nil {
			c.AddedAt = &now
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateSeries validates and stores a new series with its attendees.
func (s *AgendaService) CreateSeries(ctx context.Context, req *models.CreateSeriesRequest) (*models.SeriesAggregate, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.NewValidationError("request is required")
	}

	now := s.Config.now()
	series := &models.Series{
		UID:             uuid.NewString(),
		OrganizationUID: req.OrganizationUID,
		CreatedBy:       req.CreatedBy,
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		// A series without an explicit URL takes the join link of its location or description.
		URL:             utils.Coalesce(req.URL, utils.FirstLink(req.Location, req.Description)),
		StartTime:       normalizeInstant(req.StartTime),
		EndTime:         normalizeInstant(req.EndTime),
		AllDay:          req.AllDay,
		ReminderOffsets: normalizeReminderOffsets(req.ReminderOffsets),
		Version:         1,
		CreatedAt:       &now,
		UpdatedAt:       &now,
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", series.UID))

	if err := validateSeriesFields(series); err != nil {
		return nil, err
	}

	rule := req.Recurrence
	if rule.Type == models.RecurrenceNone && rule.Interval == 0 {
		rule.Interval = 1
	}
	series.Recurrence = recurrence.Normalize(rule, series.StartTime)
	if err := s.Evaluator.Validate(series.Recurrence, series.StartTime, series.EndTime); err != nil {
		return nil, err
	}

	attendees, err := s.normalizeAttendees(series.UID, req.Attendees)
	if err != nil {
		return nil, err
	}

	err = s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		if err := tx.CreateSeries(ctx, series); err != nil {
			return err
		}
		if len(attendees) == 0 {
			return nil
		}
		return tx.SaveAttendees(ctx, series.UID, attendees)
	})
	s.metrics.record(ctx, "create_series", err)
	if err != nil {
		slog.ErrorContext(ctx, "error creating series", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "created series", "recurrence_type", series.Recurrence.Type, "attendees", len(attendees))

	agg := &models.SeriesAggregate{Series: series, Attendees: attendees}
	if len(attendees) > 0 {
		s.notify(ctx, s.newEvent(models.ChangeInvited, series, agg.AttendeeUserIDs()))
	}
	return agg, nil
}

// GetSeries returns the series with its exceptions, attendees and overrides.
func (s *AgendaService) GetSeries(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.SeriesRepository.LoadAggregate(ctx, seriesUID)
}

// ListSeries returns every series ordered by first start.
func (s *AgendaService) ListSeries(ctx context.Context) ([]*models.Series, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.SeriesRepository.ListSeries(ctx)
}

// GetAttendees returns the attendees of a series.
func (s *AgendaService) GetAttendees(ctx context.Context, seriesUID string) ([]*models.Attendee, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if _, err := s.SeriesRepository.LoadSeries(ctx, seriesUID); err != nil {
		return nil, err
	}
	return s.SeriesRepository.LoadAttendees(ctx, seriesUID)
}

// AddAttendees adds users to a series. Users already attending are left as
// they are; the added attendees are returned.
func (s *AgendaService) AddAttendees(ctx context.Context, seriesUID string, attendees []*models.Attendee) ([]*models.Attendee, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", seriesUID))

	incoming, err := s.normalizeAttendees(seriesUID, attendees)
	if err != nil {
		return nil, err
	}

	var (
		added  []*models.Attendee
		series *models.Series
	)
	err = s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, seriesUID)
		if err != nil {
			return err
		}
		series = agg.Series
		added = nil
		for _, a := range incoming {
			if agg.Attendee(a.UserID) == nil {
				added = append(added, a)
			}
		}
		if len(added) == 0 {
			return nil
		}
		return tx.SaveAttendees(ctx, seriesUID, append(agg.Attendees, added...))
	})
	s.metrics.record(ctx, "add_attendees", err)
	if err != nil {
		return nil, err
	}

	if len(added) > 0 {
		ids := make([]string, 0, len(added))
		for _, a := range added {
			ids = append(ids, a.UserID)
		}
		s.notify(ctx, s.newEvent(models.ChangeAddedToEvent, series, ids))
	}
	return added, nil
}

// RemoveAttendee removes a user and their attendance overrides from a series.
func (s *AgendaService) RemoveAttendee(ctx context.Context, seriesUID, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", seriesUID))

	var series *models.Series
	err := s.SeriesRepository.WithinTx(ctx, func(ctx context.Context, tx domain.SeriesTx) error {
		agg, err := tx.LoadAggregate(ctx, seriesUID)
		if err != nil {
			return err
		}
		series = agg.Series
		if agg.Attendee(userID) == nil {
			return domain.NewNotFoundError(fmt.Sprintf("user %s is not an attendee of series %s", userID, seriesUID))
		}

		attendees := slices.DeleteFunc(agg.Attendees, func(a *models.Attendee) bool { return a.UserID == userID })
		overrides := slices.DeleteFunc(agg.Overrides, func(o *models.AttendanceOverride) bool { return o.UserID == userID })
		if err := tx.SaveAttendees(ctx, seriesUID, attendees); err != nil {
			return err
		}
		return tx.SaveOverrides(ctx, seriesUID, overrides)
	})
	s.metrics.record(ctx, "remove_attendee", err)
	if err != nil {
		return err
	}

	s.notify(ctx, s.newEvent(models.ChangeRemovedFromEvent, series, []string{userID}))
	return nil
}
