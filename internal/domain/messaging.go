// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// ChangeEventSender hands change events to the external notifier. Delivery is
// best-effort: callers log a returned error and never undo the change.
type ChangeEventSender interface {
	SendChangeEvents(ctx context.Context, events ...models.ChangeEvent) error
}
