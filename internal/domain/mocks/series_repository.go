// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
)

// MockSeriesRepository implements SeriesRepository for testing
type MockSeriesRepository struct {
	mock.Mock
}

func (m *MockSeriesRepository) LoadSeries(ctx context.Context, seriesUID string) (*models.Series, error) {
	args := m.Called(ctx, seriesUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Series), args.Error(1)
}

func (m *MockSeriesRepository) LoadExceptions(ctx context.Context, seriesUID string) ([]*models.Exception, error) {
	args := m.Called(ctx, seriesUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Exception), args.Error(1)
}

func (m *MockSeriesRepository) LoadAttendees(ctx context.Context, seriesUID string) ([]*models.Attendee, error) {
	args := m.Called(ctx, seriesUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Attendee), args.Error(1)
}

func (m *MockSeriesRepository) LoadOverrides(ctx context.Context, seriesUID string) ([]*models.AttendanceOverride, error) {
	args := m.Called(ctx, seriesUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AttendanceOverride), args.Error(1)
}

func (m *MockSeriesRepository) LoadAggregate(ctx context.Context, seriesUID string) (*models.SeriesAggregate, error) {
	args := m.Called(ctx, seriesUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeriesAggregate), args.Error(1)
}

func (m *MockSeriesRepository) ListSeries(ctx context.Context) ([]*models.Series, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Series), args.Error(1)
}

// WithinTx returns the configured error without invoking fn.
func (m *MockSeriesRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.SeriesTx) error) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSeriesRepository) IsReady(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}
