// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// seriesFile is the YAML document accepted by `agendactl create`.
//
//	title: Weekly sync
//	organization_uid: org-1
//	created_by: alice
//	start: 2026-01-05T16:00:00Z
//	end: 2026-01-05T16:30:00Z
//	recurrence:
//	  type: Weekly
//	  count: 10
//	reminders: [15]
//	attendees:
//	  - user_id: alice
//	    email: alice@example.org
type seriesFile struct {
	Title           string          `yaml:"title"`
	Description     string          `yaml:"description"`
	Location        string          `yaml:"location"`
	URL             string          `yaml:"url"`
	OrganizationUID string          `yaml:"organization_uid"`
	CreatedBy       string          `yaml:"created_by"`
	Start           time.Time       `yaml:"start"`
	End             time.Time       `yaml:"end"`
	AllDay          bool            `yaml:"all_day"`
	Recurrence      *recurrenceFile `yaml:"recurrence"`
	Reminders       []int           `yaml:"reminders"`
	Attendees       []attendeeFile  `yaml:"attendees"`
}

type recurrenceFile struct {
	Type     models.RecurrenceType `yaml:"type"`
	Interval int                   `yaml:"interval"`
	Until    *time.Time            `yaml:"until"`
	Count    int                   `yaml:"count"`
}

type attendeeFile struct {
	UserID   string `yaml:"user_id"`
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Optional bool   `yaml:"optional"`
}

// readSeriesFile reads a series document from path, or from stdin when path is "-".
func readSeriesFile(path string, stdin io.Reader) (*seriesFile, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading series file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f seriesFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing series file: %w", err)
	}
	return &f, nil
}

// rule converts the recurrence block. A missing block is a single occurrence.
func (r *recurrenceFile) rule() (models.RecurrenceRule, error) {
	if r == nil || r.Type == "" {
		return models.SingleOccurrence(), nil
	}
	if r.Until != nil && r.Count > 0 {
		return models.RecurrenceRule{}, fmt.Errorf("recurrence sets both until and count")
	}
	rule := models.RecurrenceRule{Type: r.Type, Interval: r.Interval, End: models.NeverEnds()}
	switch {
	case r.Until != nil:
		rule.End = models.EndsOn(*r.Until)
	case r.Count > 0:
		rule.End = models.EndsAfter(r.Count)
	}
	return rule, nil
}

func (f *seriesFile) toRequest() (*models.CreateSeriesRequest, error) {
	if f.Recurrence != nil && f.Recurrence.Interval == 0 {
		f.Recurrence.Interval = 1
	}
	rule, err := f.Recurrence.rule()
	if err != nil {
		return nil, err
	}
	req := &models.CreateSeriesRequest{
		OrganizationUID: f.OrganizationUID,
		CreatedBy:       f.CreatedBy,
		Title:           f.Title,
		Description:     f.Description,
		Location:        f.Location,
		URL:             f.URL,
		StartTime:       f.Start,
		EndTime:         f.End,
		AllDay:          f.AllDay,
		Recurrence:      rule,
		ReminderOffsets: f.Reminders,
	}
	for _, at := range f.Attendees {
		req.Attendees = append(req.Attendees, &models.Attendee{
			UserID:     at.UserID,
			Email:      at.Email,
			Name:       at.Name,
			IsOptional: at.Optional,
		})
	}
	return req, nil
}
