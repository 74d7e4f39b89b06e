// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent bounds fan-out work such as publishing change events.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs jobs with at most workerCount of them in flight.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// Size returns the concurrency limit of the pool.
func (wp *WorkerPool) Size() int {
	return wp.workerCount
}

// Run executes the jobs and returns the first error. The first failure
// cancels the context handed to jobs that have not started yet.
func (wp *WorkerPool) Run(ctx context.Context, jobs ...func(ctx context.Context) error) error {
	if len(jobs) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, job := range jobs {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return job(groupCtx)
		})
	}

	return g.Wait()
}

// RunAll executes every job regardless of failures and returns the non-nil
// errors in job order. Jobs not started before ctx is done report ctx.Err().
func (wp *WorkerPool) RunAll(ctx context.Context, jobs ...func(ctx context.Context) error) []error {
	if len(jobs) == 0 {
		return nil
	}

	// each job owns one slot, so no locking is needed
	results := make([]error, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = err
				return nil
			}
			results[i] = job(ctx)
			return nil
		})
	}

	_ = g.Wait()

	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
