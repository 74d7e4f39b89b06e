// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/akamensky/base58"
)

// versionTokenPrefix guards against tokens minted for another entity.
const versionTokenPrefix = 'v'

// ErrInvalidVersionToken is returned when a version token cannot be decoded.
var ErrInvalidVersionToken = errors.New("invalid version token")

// EncodeVersion turns a row version into the opaque token handed to callers.
func EncodeVersion(version uint64) string {
	buf := make([]byte, 9)
	buf[0] = versionTokenPrefix
	binary.BigEndian.PutUint64(buf[1:], version)
	return base58.Encode(buf)
}

// DecodeVersion parses a token produced by EncodeVersion.
func DecodeVersion(token string) (uint64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidVersionToken)
	}
	raw, err := base58.Decode(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidVersionToken, err)
	}
	if len(raw) != 9 || raw[0] != versionTokenPrefix {
		return 0, ErrInvalidVersionToken
	}
	return binary.BigEndian.Uint64(raw[1:]), nil
}
