// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// MaxWindowDays is the widest occurrence window a caller may request.
	MaxWindowDays int
	// Now is the clock. Tests pin it; nil means time.Now.
	Now func() time.Time
}

func (c ServiceConfig) maxWindow() time.Duration {
	days := c.MaxWindowDays
	if days <= 0 {
		days = constants.DefaultMaxWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// now returns the current instant in UTC, truncated to the second like every
// stored timestamp.
func (c ServiceConfig) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC().Truncate(time.Second)
	}
	return time.Now().UTC().Truncate(time.Second)
}
