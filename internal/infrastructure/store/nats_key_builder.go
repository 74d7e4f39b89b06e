// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"strings"
)

// Common key prefixes
const (
	KeyPrefixSeries = "series"
)

// KeyBuilder provides utilities for building consistent NATS KV keys
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with an optional prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{
		prefix: strings.Trim(prefix, "/"),
	}
}

// EntityKey builds a key for an entity (e.g., "series/uid-123")
func (kb *KeyBuilder) EntityKey(entityType, uid string) string {
	return kb.applyPrefix(fmt.Sprintf("%s/%s", entityType, uid))
}

// SeriesKey builds the key holding a series aggregate.
func (kb *KeyBuilder) SeriesKey(seriesUID string) string {
	return kb.EntityKey(KeyPrefixSeries, seriesUID)
}

// UIDFromKey returns the entity UID of key if key belongs to entityType.
func (kb *KeyBuilder) UIDFromKey(entityType, key string) (string, bool) {
	uid, ok := strings.CutPrefix(key, kb.applyPrefix(entityType+"/"))
	if !ok || uid == "" || strings.Contains(uid, "/") {
		return "", false
	}
	return uid, true
}

// CompoundKey builds a compound key from multiple parts
func (kb *KeyBuilder) CompoundKey(parts ...string) string {
	return kb.applyPrefix(strings.Join(parts, "/"))
}

// applyPrefix adds the builder's prefix if one is set
func (kb *KeyBuilder) applyPrefix(key string) string {
	if kb.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", kb.prefix, key)
}
