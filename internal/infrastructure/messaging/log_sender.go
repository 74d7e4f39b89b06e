// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// LogSender writes change events to the log instead of publishing them.
// It backs the CLI and deployments without NATS.
type LogSender struct{}

var _ domain.ChangeEventSender = LogSender{}

// NewLogSender creates a LogSender.
func NewLogSender() LogSender {
	return LogSender{}
}

func (LogSender) SendChangeEvents(ctx context.Context, events ...models.ChangeEvent) error {
	for _, e := range events {
		attrs := []any{
			"kind", e.Kind,
			"scope", e.Scope,
			"series_uid", e.SeriesUID,
			"user_ids", e.UserIDs,
			"dedup_key", e.DedupKey(),
		}
		if e.OccurrenceIndex != nil {
			attrs = append(attrs, "occurrence_index", *e.OccurrenceIndex)
		}
		if e.NewSeriesUID != "" {
			attrs = append(attrs, "new_series_uid", e.NewSeriesUID)
		}
		if e.Reason != "" {
			attrs = append(attrs, "reason", e.Reason)
		}
		slog.InfoContext(ctx, "change event", attrs...)
	}
	return nil
}
