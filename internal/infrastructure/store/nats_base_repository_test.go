// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
)

// testEntity for testing the base repository
type testEntity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Count int      `json:"count"`
}

func TestNatsBaseRepository_IsReady(t *testing.T) {
	tests := []struct {
		name     string
		kvStore  INatsKeyValue
		expected bool
	}{
		{name: "ready when kvStore is not nil", kvStore: NewInMemoryKeyValue("test"), expected: true},
		{name: "not ready when kvStore is nil", kvStore: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewNatsBaseRepository[testEntity](tt.kvStore, "test")
			assert.Equal(t, tt.expected, repo.IsReady())
		})
	}
}

func TestNatsBaseRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	kv := NewInMemoryKeyValue("test")
	repo := NewNatsBaseRepository[testEntity](kv, "test")

	entity := &testEntity{ID: "e-1", Name: "Entity", Tags: []string{"a", "b"}, Count: 3}
	revision, err := repo.Create(ctx, "test/e-1", entity)
	require.NoError(t, err)
	assert.NotZero(t, revision)

	got, gotRevision, err := repo.GetWithRevision(ctx, "test/e-1")
	require.NoError(t, err)
	assert.Equal(t, entity, got)
	assert.Equal(t, revision, gotRevision)
}

func TestNatsBaseRepository_CreateExistingIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsBaseRepository[testEntity](NewInMemoryKeyValue("test"), "test")

	_, err := repo.Create(ctx, "k", &testEntity{ID: "1"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, "k", &testEntity{ID: "2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestNatsBaseRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		repo := NewNatsBaseRepository[testEntity](NewInMemoryKeyValue("test"), "test")

		result, err := repo.Get(ctx, "nonexistent")

		assert.Nil(t, result)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})

	t.Run("repository not ready", func(t *testing.T) {
		repo := NewNatsBaseRepository[testEntity](nil, "test")

		result, err := repo.Get(ctx, "k")

		assert.Nil(t, result)
		assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		kv := NewInMemoryKeyValue("test")
		kv.getError = errors.New("connection reset")
		repo := NewNatsBaseRepository[testEntity](kv, "test")

		_, err := repo.Get(ctx, "k")

		assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
	})

	t.Run("undecodable value is internal", func(t *testing.T) {
		kv := NewInMemoryKeyValue("test")
		_, _ = kv.Put(ctx, "k", []byte{0xc1})
		repo := NewNatsBaseRepository[testEntity](kv, "test")

		_, err := repo.Get(ctx, "k")

		assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
	})
}

func TestNatsBaseRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("matching revision", func(t *testing.T) {
		repo := NewNatsBaseRepository[testEntity](NewInMemoryKeyValue("test"), "test")
		rev, err := repo.Create(ctx, "k", &testEntity{ID: "1", Count: 1})
		require.NoError(t, err)

		next, err := repo.Update(ctx, "k", &testEntity{ID: "1", Count: 2}, rev)
		require.NoError(t, err)
		assert.Greater(t, next, rev)

		got, err := repo.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Count)
	})

	t.Run("stale revision is conflict", func(t *testing.T) {
		repo := NewNatsBaseRepository[testEntity](NewInMemoryKeyValue("test"), "test")
		rev, err := repo.Create(ctx, "k", &testEntity{ID: "1"})
		require.NoError(t, err)
		_, err = repo.Update(ctx, "k", &testEntity{ID: "1", Count: 5}, rev)
		require.NoError(t, err)

		_, err = repo.Update(ctx, "k", &testEntity{ID: "1", Count: 6}, rev)
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.True(t, domain.IsRetryable(err))
	})

	t.Run("missing key is not found", func(t *testing.T) {
		repo := NewNatsBaseRepository[testEntity](NewInMemoryKeyValue("test"), "test")

		_, err := repo.Update(ctx, "missing", &testEntity{}, 1)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestNatsBaseRepository_DeleteWithoutRevision(t *testing.T) {
	ctx := context.Background()
	kv := NewInMemoryKeyValue("test")
	repo := NewNatsBaseRepository[testEntity](kv, "test")

	_, err := repo.Create(ctx, "k", &testEntity{ID: "1"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteWithoutRevision(ctx, "k"))
	assert.Zero(t, kv.Len())

	err = repo.DeleteWithoutRevision(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNatsBaseRepository_ListKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsBaseRepository[testEntity](NewInMemoryKeyValue("test"), "test")

	keys, err := repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, k := range []string{"b", "a", "c"} {
		_, err := repo.Create(ctx, k, &testEntity{ID: k})
		require.NoError(t, err)
	}

	keys, err = repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
