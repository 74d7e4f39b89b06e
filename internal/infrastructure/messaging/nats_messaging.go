// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// INatsConn is a NATS connection interface needed for publishing change events.
type INatsConn interface {
	IsConnected() bool
	PublishMsg(msg *nats.Msg) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
	pool     *concurrent.WorkerPool
}

var _ domain.ChangeEventSender = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder publishing with at most
// workers messages in flight.
func NewMessageBuilder(natsConn INatsConn, workers int) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
		pool:     concurrent.NewWorkerPool(workers),
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, msg *nats.Msg) error {
	err := m.NatsConn.PublishMsg(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", msg.Subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", msg.Subject)
	return nil
}

// buildChangeEventMessage encodes the event and sets the headers consumers
// rely on: a dedup id for at-least-once delivery and the trace context.
func buildChangeEventMessage(ctx context.Context, event models.ChangeEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("error marshalling %s event into JSON: %w", event.Kind, err)
	}

	msg := nats.NewMsg(event.Kind.Subject())
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.DedupKey())
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok && requestID != "" {
		msg.Header.Set(constants.RequestIDHeader, requestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}

// SendChangeEvents publishes every event on its kind's subject. Publishing
// runs on the worker pool, and every failure is returned joined.
func (m *MessageBuilder) SendChangeEvents(ctx context.Context, events ...models.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	if m.NatsConn == nil || !m.NatsConn.IsConnected() {
		return domain.NewUnavailableError("NATS connection is not available")
	}

	jobs := make([]func(ctx context.Context) error, 0, len(events))
	for _, event := range events {
		jobs = append(jobs, func(ctx context.Context) error {
			msg, err := buildChangeEventMessage(ctx, event)
			if err != nil {
				slog.ErrorContext(ctx, "error building change event", logging.ErrKey, err, "kind", event.Kind)
				return err
			}
			return m.sendMessage(ctx, msg)
		})
	}

	errs := m.pool.RunAll(ctx, jobs...)
	if len(errs) > 0 {
		return fmt.Errorf("failed to publish %d of %d change events: %w", len(errs), len(events), errors.Join(errs...))
	}

	slog.DebugContext(ctx, "published change events", "count", len(events))
	return nil
}
