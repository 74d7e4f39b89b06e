// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{name: "explicit url wins", values: []string{"https://meet.example.org/a", "https://zoom.us/j/1"}, expected: "https://meet.example.org/a"},
		{name: "falls back to detected link", values: []string{"", "https://zoom.us/j/1"}, expected: "https://zoom.us/j/1"},
		{name: "all empty", values: []string{"", ""}, expected: ""},
		{name: "no arguments", values: nil, expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Coalesce(tt.values...))
		})
	}

	t.Run("ints", func(t *testing.T) {
		assert.Equal(t, 15, Coalesce(0, 15, 30))
		assert.Zero(t, Coalesce[int]())
	})
}
