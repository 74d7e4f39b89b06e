// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
)

const meterName = "github.com/linuxfoundation/lfx-v2-agenda-service/internal/service"

type serviceMetrics struct {
	mutations metric.Int64Counter
	conflicts metric.Int64Counter
	events    metric.Int64Counter
}

func newServiceMetrics() *serviceMetrics {
	meter := otel.Meter(meterName)
	return &serviceMetrics{
		mutations: counter(meter, "agenda.mutations", "Committed series mutations by operation."),
		conflicts: counter(meter, "agenda.conflicts", "Mutations rejected by the optimistic concurrency check."),
		events:    counter(meter, "agenda.change_events", "Change events handed to the notifier by outcome."),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		slog.Warn("failed to create counter, metrics disabled", "name", name, logging.ErrKey, err)
		return noop.Int64Counter{}
	}
	return c
}

// record counts the outcome of a mutation named op.
func (m *serviceMetrics) record(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}
	opAttr := metric.WithAttributes(attribute.String("operation", op))
	switch {
	case err == nil:
		m.mutations.Add(ctx, 1, opAttr)
	case domain.IsRetryable(err):
		m.conflicts.Add(ctx, 1, opAttr)
	}
}

func (m *serviceMetrics) recordEvents(ctx context.Context, n int, err error) {
	if m == nil || n == 0 {
		return
	}
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	m.events.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}
