// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
)

// NatsBaseRepository provides common NATS KV operations that can be reused across all repositories.
// Values are msgpack encoded using the json struct tags of the stored type.
type NatsBaseRepository[T any] struct {
	kvStore    INatsKeyValue
	entityName string // Used in error messages (e.g., "series")
}

// NewNatsBaseRepository creates a new base repository for NATS KV operations
func NewNatsBaseRepository[T any](kvStore INatsKeyValue, entityName string) *NatsBaseRepository[T] {
	return &NatsBaseRepository[T]{
		kvStore:    kvStore,
		entityName: entityName,
	}
}

// IsReady checks if the repository is ready for use
func (r *NatsBaseRepository[T]) IsReady() bool {
	return r.kvStore != nil
}

func (r *NatsBaseRepository[T]) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	base := []attribute.KeyValue{
		attribute.String("db.system", "nats"),
		attribute.String("db.operation", operation),
		attribute.String("db.nats.entity", r.entityName),
	}
	return otel.Tracer(tracerName).Start(ctx, "nats.kv."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(base, attrs...)...),
	)
}

func failSpan(span trace.Span, err error, status string) error {
	span.RecordError(err)
	if status == "" {
		status = err.Error()
	}
	span.SetStatus(codes.Error, status)
	return err
}

func (r *NatsBaseRepository[T]) unavailable() error {
	return domain.NewUnavailableError(fmt.Sprintf("%s repository is not available", r.entityName))
}

// isWrongLastSequence reports whether a KV write failed its revision check.
func isWrongLastSequence(err error) bool {
	return err != nil && strings.Contains(err.Error(), "wrong last sequence")
}

// GetRaw retrieves a raw entry from NATS KV store
func (r *NatsBaseRepository[T]) GetRaw(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	ctx, span := r.startSpan(ctx, "get", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return nil, failSpan(span, r.unavailable(), "")
	}

	entry, err := r.kvStore.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			err = domain.NewNotFoundError(fmt.Sprintf("%s with key '%s' not found", r.entityName, key), err)
			return nil, failSpan(span, err, "not found")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error getting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(fmt.Sprintf("failed to retrieve %s from store", r.entityName), err)
		return nil, failSpan(span, err, "")
	}

	span.SetAttributes(attribute.Int64("db.nats.revision", int64(entry.Revision())))
	span.SetStatus(codes.Ok, "")
	return entry, nil
}

// Get retrieves and decodes an entity from NATS KV store
func (r *NatsBaseRepository[T]) Get(ctx context.Context, key string) (*T, error) {
	entity, _, err := r.GetWithRevision(ctx, key)
	return entity, err
}

// GetWithRevision retrieves an entity with its revision from NATS KV store
func (r *NatsBaseRepository[T]) GetWithRevision(ctx context.Context, key string) (*T, uint64, error) {
	entry, err := r.GetRaw(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	entity, err := r.Unmarshal(ctx, entry.Value())
	if err != nil {
		return nil, 0, domain.NewInternalError(fmt.Sprintf("failed to decode %s data", r.entityName), err)
	}

	return entity, entry.Revision(), nil
}

// Unmarshal decodes stored bytes into the entity type
func (r *NatsBaseRepository[T]) Unmarshal(ctx context.Context, data []byte) (*T, error) {
	var entity T
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error decoding %s", r.entityName), logging.ErrKey, err)
		return nil, err
	}
	return &entity, nil
}

// Marshal encodes an entity to msgpack bytes
func (r *NatsBaseRepository[T]) Marshal(ctx context.Context, entity *T) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(entity); err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("error encoding %s", r.entityName), logging.ErrKey, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// Create stores a new entity and fails with a conflict if the key exists.
func (r *NatsBaseRepository[T]) Create(ctx context.Context, key string, entity *T) (uint64, error) {
	ctx, span := r.startSpan(ctx, "create", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return 0, failSpan(span, r.unavailable(), "")
	}

	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, failSpan(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	revision, err := r.kvStore.Create(ctx, key, data)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) || isWrongLastSequence(err) {
			err = domain.NewConflictError(fmt.Sprintf("%s already exists", r.entityName), err)
			return 0, failSpan(span, err, "conflict")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error creating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(fmt.Sprintf("failed to create %s in store", r.entityName), err)
		return 0, failSpan(span, err, "")
	}

	span.SetStatus(codes.Ok, "")
	return revision, nil
}

// Update replaces an entity if its stored revision still equals revision.
func (r *NatsBaseRepository[T]) Update(ctx context.Context, key string, entity *T, revision uint64) (uint64, error) {
	ctx, span := r.startSpan(ctx, "update",
		attribute.String("db.nats.key", key),
		attribute.Int64("db.nats.revision", int64(revision)),
	)
	defer span.End()

	if !r.IsReady() {
		return 0, failSpan(span, r.unavailable(), "")
	}

	data, err := r.Marshal(ctx, entity)
	if err != nil {
		return 0, failSpan(span, domain.NewInternalError(fmt.Sprintf("failed to encode %s", r.entityName), err), "")
	}

	next, err := r.kvStore.Update(ctx, key, data, revision)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			err = domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err)
			return 0, failSpan(span, err, "not found")
		}
		if isWrongLastSequence(err) {
			err = domain.NewConflictError(fmt.Sprintf("%s has been modified", r.entityName), err)
			return 0, failSpan(span, err, "conflict")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error updating %s in NATS KV", r.entityName),
			logging.ErrKey, err, "key", key, "revision", revision)
		err = domain.NewInternalError(fmt.Sprintf("failed to update %s in store", r.entityName), err)
		return 0, failSpan(span, err, "")
	}

	span.SetStatus(codes.Ok, "")
	return next, nil
}

// DeleteWithoutRevision removes an entity from the store without revision checking.
// It is used to undo keys created earlier in a failed commit.
func (r *NatsBaseRepository[T]) DeleteWithoutRevision(ctx context.Context, key string) error {
	ctx, span := r.startSpan(ctx, "delete", attribute.String("db.nats.key", key))
	defer span.End()

	if !r.IsReady() {
		return failSpan(span, r.unavailable(), "")
	}

	if err := r.kvStore.Delete(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			err = domain.NewNotFoundError(fmt.Sprintf("%s not found", r.entityName), err)
			return failSpan(span, err, "not found")
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error deleting %s from NATS KV", r.entityName),
			logging.ErrKey, err, "key", key)
		err = domain.NewInternalError(fmt.Sprintf("failed to delete %s from store", r.entityName), err)
		return failSpan(span, err, "")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListKeys lists all keys in the store
func (r *NatsBaseRepository[T]) ListKeys(ctx context.Context) ([]string, error) {
	ctx, span := r.startSpan(ctx, "list_keys")
	defer span.End()

	if !r.IsReady() {
		return nil, failSpan(span, r.unavailable(), "")
	}

	lister, err := r.kvStore.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			span.SetStatus(codes.Ok, "")
			return nil, nil
		}
		slog.ErrorContext(ctx, fmt.Sprintf("error listing %s keys from NATS KV", r.entityName), logging.ErrKey, err)
		err = domain.NewInternalError(fmt.Sprintf("failed to list %s keys from store", r.entityName), err)
		return nil, failSpan(span, err, "")
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	span.SetAttributes(attribute.Int("db.nats.keys_count", len(keys)))
	span.SetStatus(codes.Ok, "")
	return keys, nil
}
