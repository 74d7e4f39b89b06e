// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/calendar"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/service"
)

// AgendaHandler serves the agenda API over NATS request/reply.
type AgendaHandler struct {
	agendaService *service.AgendaService
	exporter      *calendar.Exporter
}

func NewAgendaHandler(agendaService *service.AgendaService, exporter *calendar.Exporter) *AgendaHandler {
	if exporter == nil {
		exporter = calendar.NewExporter()
	}
	return &AgendaHandler{
		agendaService: agendaService,
		exporter:      exporter,
	}
}

func (s *AgendaHandler) HandlerReady() bool {
	return s.agendaService.ServiceReady()
}

// Subjects lists every subject the handler answers.
func (s *AgendaHandler) Subjects() []string {
	subjects := make([]string, 0, len(s.handlers()))
	for subject := range s.handlers() {
		subjects = append(subjects, subject)
	}
	return subjects
}

func (s *AgendaHandler) handlers() map[string]func(ctx context.Context, msg domain.Message) ([]byte, error) {
	return map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.CreateSeriesSubject:     s.HandleCreateSeries,
		models.GetSeriesSubject:        s.HandleGetSeries,
		models.ListSeriesSubject:       s.HandleListSeries,
		models.GetOccurrencesSubject:   s.HandleGetOccurrences,
		models.EditSeriesSubject:       s.HandleEditSeries,
		models.CancelOccurrenceSubject: s.HandleCancelOccurrence,
		models.CancelSeriesSubject:     s.HandleCancelSeries,
		models.ResetOccurrenceSubject:  s.HandleResetOccurrence,
		models.SetAttendanceSubject:    s.HandleSetAttendance,
		models.ResetAttendanceSubject:  s.HandleResetAttendance,
		models.AddAttendeesSubject:     s.HandleAddAttendees,
		models.RemoveAttendeeSubject:   s.HandleRemoveAttendee,
		models.ExportICSSubject:        s.HandleExportICS,
	}
}

// HandleMessage implements domain.MessageHandler interface
func (s *AgendaHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handler, ok := s.handlers()[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		s.respond(ctx, msg, errorResponse(domain.NewValidationError("unknown subject "+subject)))
		return
	}

	response, err := handler(ctx, msg)
	if err != nil {
		level := slog.LevelWarn
		if t := domain.GetErrorType(err); t == domain.ErrorTypeInternal || t == domain.ErrorTypeUnavailable {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "error handling message",
			logging.ErrKey, err,
			"error_type", domain.GetErrorType(err).String(),
		)
		s.respond(ctx, msg, errorResponse(err))
		return
	}

	s.respond(ctx, msg, response)
}

func (s *AgendaHandler) respond(ctx context.Context, msg domain.Message, response []byte) {
	if !msg.HasReply() {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
		return
	}
	if err := msg.Respond(response); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "responded to NATS message")
}

func decode[T any](msg domain.Message) (T, error) {
	var payload T
	if err := json.Unmarshal(msg.Data(), &payload); err != nil {
		return payload, domain.NewValidationError("malformed request body", err)
	}
	return payload, nil
}

func requireIndex(index *int) (int, error) {
	if index == nil {
		return 0, domain.NewValidationError("occurrence_index is required")
	}
	return *index, nil
}

func (s *AgendaHandler) HandleCreateSeries(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[createSeriesPayload](msg)
	if err != nil {
		return nil, err
	}

	agg, err := s.agendaService.CreateSeries(ctx, payload.toRequest())
	if err != nil {
		return nil, err
	}
	return dataResponse(newSeriesView(agg))
}

func (s *AgendaHandler) HandleGetSeries(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[seriesRef](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	agg, err := s.agendaService.GetSeries(ctx, payload.SeriesUID)
	if err != nil {
		return nil, err
	}
	return dataResponse(newSeriesView(agg))
}

func (s *AgendaHandler) HandleListSeries(ctx context.Context, _ domain.Message) ([]byte, error) {
	series, err := s.agendaService.ListSeries(ctx)
	if err != nil {
		return nil, err
	}
	return dataResponse(series)
}

func (s *AgendaHandler) HandleGetOccurrences(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[getOccurrencesPayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	occurrences, err := s.agendaService.GetOccurrences(ctx, models.GetOccurrencesRequest{
		SeriesUID:        payload.SeriesUID,
		WindowStart:      payload.WindowStart,
		WindowEnd:        payload.WindowEnd,
		RequestingUserID: payload.RequestingUserID,
	})
	if err != nil {
		return nil, err
	}
	if occurrences == nil {
		occurrences = []models.EffectiveOccurrence{}
	}
	return dataResponse(occurrences)
}

func (s *AgendaHandler) HandleEditSeries(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[editSeriesPayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))
	ctx = logging.AppendCtx(ctx, slog.String("scope", string(payload.Scope)))

	version, err := decodeVersion(payload.Version)
	if err != nil {
		return nil, err
	}

	res, err := s.agendaService.EditSeries(ctx, &models.EditSeriesRequest{
		SeriesUID:       payload.SeriesUID,
		Scope:           payload.Scope,
		OccurrenceIndex: payload.OccurrenceIndex,
		Patch:           payload.Patch.toPatch(),
		ExpectedVersion: version,
	})
	if err != nil {
		return nil, err
	}
	return dataResponse(res)
}

func (s *AgendaHandler) HandleCancelOccurrence(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[cancelOccurrencePayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	index, err := requireIndex(payload.OccurrenceIndex)
	if err != nil {
		return nil, err
	}

	res, err := s.agendaService.CancelOccurrence(ctx, payload.SeriesUID, index, payload.Reason)
	if err != nil {
		return nil, err
	}
	return dataResponse(res)
}

func (s *AgendaHandler) HandleCancelSeries(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[cancelSeriesPayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	version, err := decodeVersion(payload.Version)
	if err != nil {
		return nil, err
	}

	res, err := s.agendaService.CancelSeries(ctx, payload.SeriesUID, payload.Reason, version)
	if err != nil {
		return nil, err
	}
	return dataResponse(res)
}

func (s *AgendaHandler) HandleResetOccurrence(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[resetOccurrencePayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	index, err := requireIndex(payload.OccurrenceIndex)
	if err != nil {
		return nil, err
	}
	version, err := decodeVersion(payload.Version)
	if err != nil {
		return nil, err
	}

	res, err := s.agendaService.ResetOccurrence(ctx, payload.SeriesUID, index, version)
	if err != nil {
		return nil, err
	}
	return dataResponse(res)
}

func (s *AgendaHandler) HandleSetAttendance(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[setAttendancePayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	err = s.agendaService.SetAttendance(ctx, &models.SetAttendanceRequest{
		SeriesUID:       payload.SeriesUID,
		UserID:          payload.UserID,
		Scope:           payload.Scope,
		OccurrenceIndex: payload.OccurrenceIndex,
		Status:          payload.Status,
	})
	if err != nil {
		return nil, err
	}
	return dataResponse(seriesRef{SeriesUID: payload.SeriesUID})
}

func (s *AgendaHandler) HandleResetAttendance(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[resetAttendancePayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	if err := s.agendaService.ResetAttendance(ctx, payload.SeriesUID, payload.UserID, payload.OccurrenceIndex); err != nil {
		return nil, err
	}
	return dataResponse(seriesRef{SeriesUID: payload.SeriesUID})
}

func (s *AgendaHandler) HandleAddAttendees(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[addAttendeesPayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	attendees, err := s.agendaService.AddAttendees(ctx, payload.SeriesUID, payload.Attendees)
	if err != nil {
		return nil, err
	}
	return dataResponse(attendees)
}

func (s *AgendaHandler) HandleRemoveAttendee(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[removeAttendeePayload](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	if err := s.agendaService.RemoveAttendee(ctx, payload.SeriesUID, payload.UserID); err != nil {
		return nil, err
	}
	return dataResponse(seriesRef{SeriesUID: payload.SeriesUID})
}

func (s *AgendaHandler) HandleExportICS(ctx context.Context, msg domain.Message) ([]byte, error) {
	payload, err := decode[seriesRef](msg)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("series_uid", payload.SeriesUID))

	agg, err := s.agendaService.GetSeries(ctx, payload.SeriesUID)
	if err != nil {
		return nil, err
	}
	ics, err := s.exporter.Export(agg)
	if err != nil {
		return nil, domain.NewInternalError("failed to render calendar", err)
	}
	return dataResponse(exportICSResult{
		SeriesUID:    agg.Series.UID,
		VersionToken: models.EncodeVersion(agg.Series.Version),
		Calendar:     ics,
	})
}
