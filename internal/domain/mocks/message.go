// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockMessage is a request message on an agenda subject.
type MockMessage struct {
	mock.Mock
	data    []byte
	subject string
	reply   []byte
}

// NewMockMessage builds a message carrying data on subject.
func NewMockMessage(data []byte, subject string) *MockMessage {
	return &MockMessage{data: data, subject: subject}
}

func (m *MockMessage) Subject() string { return m.subject }

func (m *MockMessage) Data() []byte { return m.data }

func (m *MockMessage) HasReply() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMessage) Respond(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

// ExpectReply sets up a message that has a reply inbox and records the
// envelope it is answered with. Read it back with Reply.
func (m *MockMessage) ExpectReply() *MockMessage {
	m.On("HasReply").Return(true)
	m.On("Respond", mock.Anything).Run(func(args mock.Arguments) {
		m.reply = args.Get(0).([]byte)
	}).Return(nil)
	return m
}

// Reply returns the last envelope passed to Respond.
func (m *MockMessage) Reply() []byte { return m.reply }
