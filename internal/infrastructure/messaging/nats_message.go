// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// NatsMessage adapts a received *nats.Msg to domain.Message.
type NatsMessage struct {
	msg *nats.Msg
}

var _ domain.Message = (*NatsMessage)(nil)

// NewNatsMessage wraps msg.
func NewNatsMessage(msg *nats.Msg) *NatsMessage {
	return &NatsMessage{msg: msg}
}

func (m *NatsMessage) Subject() string {
	return m.msg.Subject
}

func (m *NatsMessage) Data() []byte {
	return m.msg.Data
}

func (m *NatsMessage) HasReply() bool {
	return m.msg.Reply != ""
}

func (m *NatsMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}

// Context returns parent enriched with the trace context, request ID and
// principal carried in the message headers.
func (m *NatsMessage) Context(parent context.Context) context.Context {
	if m.msg.Header == nil {
		return parent
	}
	ctx := otel.GetTextMapPropagator().Extract(parent, propagation.HeaderCarrier(m.msg.Header))
	if requestID := m.msg.Header.Get(constants.RequestIDHeader); requestID != "" {
		ctx = context.WithValue(ctx, constants.RequestIDContextID, requestID)
	}
	if principal := m.msg.Header.Get(constants.XOnBehalfOfHeader); principal != "" {
		ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
	}
	return ctx
}

// Subscribe routes every message on subjects through handler using a queue
// group, so replicas share the load.
func Subscribe(ctx context.Context, conn *nats.Conn, queue string, handler domain.MessageHandler, subjects ...string) ([]*nats.Subscription, error) {
	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, err := conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
			wrapped := NewNatsMessage(msg)
			handler.HandleMessage(wrapped.Context(ctx), wrapped)
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
