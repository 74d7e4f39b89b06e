// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// MockChangeEventSender implements ChangeEventSender for testing
type MockChangeEventSender struct {
	mock.Mock
}

func (m *MockChangeEventSender) SendChangeEvents(ctx context.Context, events ...models.ChangeEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// Events returns every event passed to SendChangeEvents, in call order.
func (m *MockChangeEventSender) Events() []models.ChangeEvent {
	var out []models.ChangeEvent
	for _, call := range m.Calls {
		if call.Method != "SendChangeEvents" {
			continue
		}
		out = append(out, call.Arguments.Get(1).([]models.ChangeEvent)...)
	}
	return out
}

// EventsOfKind filters Events by kind.
func (m *MockChangeEventSender) EventsOfKind(kind models.ChangeEventKind) []models.ChangeEvent {
	var out []models.ChangeEvent
	for _, e := range m.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
