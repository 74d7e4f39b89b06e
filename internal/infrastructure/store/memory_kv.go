// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// errWrongLastSequence mirrors the text JetStream returns when an Update
// revision is stale, which the repository maps to a conflict.
var errWrongLastSequence = errors.New("nats: wrong last sequence")

// InMemoryKeyValue is a process-local INatsKeyValue. It backs the memory
// store backend and the store tests. Revisions are global to the bucket,
// as they are in JetStream.
type InMemoryKeyValue struct {
	mu       sync.RWMutex
	bucket   string
	data     map[string]*memoryEntry
	sequence uint64

	// Fault injection for tests. A non-nil error is returned by the next call.
	getError    error
	createError error
	updateError error
	deleteError error
}

var _ INatsKeyValue = (*InMemoryKeyValue)(nil)

// NewInMemoryKeyValue creates an empty in-memory bucket.
func NewInMemoryKeyValue(bucket string) *InMemoryKeyValue {
	return &InMemoryKeyValue{
		bucket: bucket,
		data:   make(map[string]*memoryEntry),
	}
}

type memoryEntry struct {
	bucket   string
	key      string
	value    []byte
	revision uint64
	created  time.Time
}

func (e *memoryEntry) Key() string                     { return e.key }
func (e *memoryEntry) Value() []byte                   { return e.value }
func (e *memoryEntry) Revision() uint64                { return e.revision }
func (e *memoryEntry) Created() time.Time              { return e.created }
func (e *memoryEntry) Delta() uint64                   { return 0 }
func (e *memoryEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
func (e *memoryEntry) Bucket() string                  { return e.bucket }

type memoryKeyLister struct {
	keys []string
}

func (l *memoryKeyLister) Keys() <-chan string {
	ch := make(chan string, len(l.keys))
	for _, k := range l.keys {
		ch <- k
	}
	close(ch)
	return ch
}

func (l *memoryKeyLister) Stop() error { return nil }

func takeErr(err *error) error {
	e := *err
	*err = nil
	return e
}

// ListKeys returns a snapshot of the keys in sorted order.
func (m *InMemoryKeyValue) ListKeys(_ context.Context, _ ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return &memoryKeyLister{keys: keys}, nil
}

// Get returns the latest entry for key.
func (m *InMemoryKeyValue) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := takeErr(&m.getError); err != nil {
		return nil, err
	}
	e, ok := m.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	c := *e
	c.value = slices.Clone(e.value)
	return &c, nil
}

// Create stores value only if key does not exist.
func (m *InMemoryKeyValue) Create(_ context.Context, key string, value []byte, _ ...jetstream.KVCreateOpt) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := takeErr(&m.createError); err != nil {
		return 0, err
	}
	if _, ok := m.data[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	return m.store(key, value), nil
}

// Put stores value unconditionally.
func (m *InMemoryKeyValue) Put(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store(key, value), nil
}

// Update stores value only if the latest revision of key is revision.
func (m *InMemoryKeyValue) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := takeErr(&m.updateError); err != nil {
		return 0, err
	}
	e, ok := m.data[key]
	if !ok {
		return 0, jetstream.ErrKeyNotFound
	}
	if e.revision != revision {
		return 0, errWrongLastSequence
	}
	return m.store(key, value), nil
}

// Delete removes key. Revision options are not evaluated.
func (m *InMemoryKeyValue) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := takeErr(&m.deleteError); err != nil {
		return err
	}
	if _, ok := m.data[key]; !ok {
		return jetstream.ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

// Len returns the number of keys in the bucket.
func (m *InMemoryKeyValue) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *InMemoryKeyValue) store(key string, value []byte) uint64 {
	m.sequence++
	created := time.Now().UTC()
	if e, ok := m.data[key]; ok {
		created = e.created
	}
	m.data[key] = &memoryEntry{
		bucket:   m.bucket,
		key:      key,
		value:    slices.Clone(value),
		revision: m.sequence,
		created:  created,
	}
	return m.sequence
}
