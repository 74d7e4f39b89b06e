// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"encoding/json"
	"time"

	"github.com/samber/mo"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// response is the envelope of every reply on the agenda API subjects.
type response struct {
	Data  any            `json:"data,omitempty"`
	Error *responseError `json:"error,omitempty"`
}

type responseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func dataResponse(data any) ([]byte, error) {
	return json.Marshal(response{Data: data})
}

func errorResponse(err error) []byte {
	resp := response{Error: &responseError{
		Type:    domain.GetErrorType(err).String(),
		Message: err.Error(),
	}}
	// a struct of strings always marshals
	b, _ := json.Marshal(resp)
	return b
}

func decodeVersion(token string) (uint64, error) {
	v, err := models.DecodeVersion(token)
	if err != nil {
		return 0, domain.NewValidationError("invalid version token", err)
	}
	return v, nil
}

type seriesRef struct {
	SeriesUID string `json:"series_uid"`
}

type createSeriesPayload struct {
	OrganizationUID string                 `json:"organization_uid"`
	CreatedBy       string                 `json:"created_by"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Location        string                 `json:"location"`
	URL             string                 `json:"url"`
	StartTime       time.Time              `json:"start_time"`
	EndTime         time.Time              `json:"end_time"`
	AllDay          bool                   `json:"all_day"`
	Recurrence      *models.RecurrenceRule `json:"recurrence"`
	ReminderOffsets []int                  `json:"reminder_offsets"`
	Attendees       []*models.Attendee     `json:"attendees"`
}

func (p createSeriesPayload) toRequest() *models.CreateSeriesRequest {
	rule := models.SingleOccurrence()
	if p.Recurrence != nil {
		rule = *p.Recurrence
	}
	return &models.CreateSeriesRequest{
		OrganizationUID: p.OrganizationUID,
		CreatedBy:       p.CreatedBy,
		Title:           p.Title,
		Description:     p.Description,
		Location:        p.Location,
		URL:             p.URL,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		AllDay:          p.AllDay,
		Recurrence:      rule,
		ReminderOffsets: p.ReminderOffsets,
		Attendees:       p.Attendees,
	}
}

// seriesView is a series aggregate together with its opaque version token.
type seriesView struct {
	*models.SeriesAggregate
	VersionToken string `json:"version_token"`
}

func newSeriesView(agg *models.SeriesAggregate) seriesView {
	return seriesView{SeriesAggregate: agg, VersionToken: models.EncodeVersion(agg.Series.Version)}
}

type getOccurrencesPayload struct {
	SeriesUID        string    `json:"series_uid"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	RequestingUserID string    `json:"requesting_user_id"`
}

// patchPayload uses pointers so that an absent field differs from a zero one.
type patchPayload struct {
	Title              *string                `json:"title"`
	Description        *string                `json:"description"`
	Location           *string                `json:"location"`
	URL                *string                `json:"url"`
	StartTime          *time.Time             `json:"start_time"`
	EndTime            *time.Time             `json:"end_time"`
	AllDay             *bool                  `json:"all_day"`
	Recurrence         *models.RecurrenceRule `json:"recurrence"`
	ReminderOffsets    *[]int                 `json:"reminder_offsets"`
	Cancelled          *bool                  `json:"cancelled"`
	CancellationReason *string                `json:"cancellation_reason"`
}

func (p patchPayload) toPatch() models.SeriesPatch {
	return models.SeriesPatch{
		Title:              mo.PointerToOption(p.Title),
		Description:        mo.PointerToOption(p.Description),
		Location:           mo.PointerToOption(p.Location),
		URL:                mo.PointerToOption(p.URL),
		StartTime:          mo.PointerToOption(p.StartTime),
		EndTime:            mo.PointerToOption(p.EndTime),
		AllDay:             mo.PointerToOption(p.AllDay),
		Recurrence:         mo.PointerToOption(p.Recurrence),
		ReminderOffsets:    mo.PointerToOption(p.ReminderOffsets),
		Cancelled:          mo.PointerToOption(p.Cancelled),
		CancellationReason: mo.PointerToOption(p.CancellationReason),
	}
}

type editSeriesPayload struct {
	SeriesUID       string           `json:"series_uid"`
	Scope           models.EditScope `json:"scope"`
	OccurrenceIndex *int             `json:"occurrence_index"`
	Version         string           `json:"version"`
	Patch           patchPayload     `json:"patch"`
}

type cancelOccurrencePayload struct {
	SeriesUID       string `json:"series_uid"`
	OccurrenceIndex *int   `json:"occurrence_index"`
	Reason          string `json:"reason"`
}

type cancelSeriesPayload struct {
	SeriesUID string `json:"series_uid"`
	Reason    string `json:"reason"`
	Version   string `json:"version"`
}

type resetOccurrencePayload struct {
	SeriesUID       string `json:"series_uid"`
	OccurrenceIndex *int   `json:"occurrence_index"`
	Version         string `json:"version"`
}

type setAttendancePayload struct {
	SeriesUID       string                  `json:"series_uid"`
	UserID          string                  `json:"user_id"`
	Scope           models.AttendanceScope  `json:"scope"`
	OccurrenceIndex *int                    `json:"occurrence_index"`
	Status          models.AttendanceStatus `json:"status"`
}

type resetAttendancePayload struct {
	SeriesUID       string `json:"series_uid"`
	UserID          string `json:"user_id"`
	OccurrenceIndex *int   `json:"occurrence_index"`
}

type addAttendeesPayload struct {
	SeriesUID string             `json:"series_uid"`
	Attendees []*models.Attendee `json:"attendees"`
}

type removeAttendeePayload struct {
	SeriesUID string `json:"series_uid"`
	UserID    string `json:"user_id"`
}

type exportICSResult struct {
	SeriesUID    string `json:"series_uid"`
	VersionToken string `json:"version"`
	Calendar     string `json:"calendar"`
}
