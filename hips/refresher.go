// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrRefresherNotStopped = errors.New("refresher is either running or starting")
	ErrRefresherNotRunning = errors.New("refresher is either stopped or stopping")
	ErrNoSourceProvided    = errors.New("no collection source provided")
	ErrNoCacheProvided     = errors.New("no cache provided")
)

// refresher states
const (
	stopped int32 = iota
	running
	transitioning
)

const (
	defaultPullInterval = 5 * time.Minute
	defaultTTL          = 15 * time.Minute
)

// Refresher keeps the cache warm on an interval. Exactly one refresh runs
// at a time; readers are never blocked on one.
type Refresher struct {
	source   Source
	cache    *Cache
	ticker   *time.Ticker
	interval time.Duration
	measures *Measures
	logger   *zap.Logger
	shutdown chan struct{}
	state    int32
}

// NewRefresher builds the background refresh process for a cache.
func NewRefresher(source Source, cache *Cache, interval time.Duration, measures *Measures, logger *zap.Logger) (*Refresher, error) {
	if source == nil {
		return nil, ErrNoSourceProvided
	}
	if cache == nil {
		return nil, ErrNoCacheProvided
	}
	if interval == 0 {
		interval = defaultPullInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		source:   source,
		cache:    cache,
		ticker:   time.NewTicker(interval),
		interval: interval,
		measures: measures,
		logger:   logger,
		shutdown: make(chan struct{}),
	}, nil
}

// Start launches the refresh loop. The first refresh runs immediately and
// best-effort: a failing backend delays cache availability but never delays
// startup. Calling Start while the refresher is running is an error; call
// Stop first to restart.
func (r *Refresher) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.state, stopped, transitioning) {
		r.logger.Error("Start called when refresher was not in stopped state", zap.Error(ErrRefresherNotStopped))
		return ErrRefresherNotStopped
	}

	r.ticker.Reset(r.interval)
	go func() {
		r.refresh(context.Background())
		for {
			select {
			case <-r.shutdown:
				return
			case <-r.ticker.C:
				r.refresh(context.Background())
			}
		}
	}()

	atomic.SwapInt32(&r.state, running)
	return nil
}

// Stop requests the refresh loop to stop. Calling Stop when the refresher
// is not running (or while it is getting stopped) returns an error.
func (r *Refresher) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.state, running, transitioning) {
		r.logger.Error("Stop called when refresher was not in running state", zap.Error(ErrRefresherNotRunning))
		return ErrRefresherNotRunning
	}

	r.ticker.Stop()
	r.shutdown <- struct{}{}
	atomic.SwapInt32(&r.state, stopped)
	return nil
}

// refresh fetches the full collection set and publishes it as a new
// snapshot. On failure the previous snapshot keeps being served and only
// the health flag changes; a cache that was populated once never empties.
func (r *Refresher) refresh(ctx context.Context) {
	outcome := SuccessOutcome
	datasets, err := r.source.ListCollections(ctx)
	if err != nil {
		outcome = FailureOutcome
		r.cache.markUnhealthy()
		r.logger.Error("failed to refresh HiPS collection lists", zap.Error(err))
	} else {
		r.cache.publish(&Snapshot{
			Datasets:    datasets,
			LastRefresh: time.Now(),
		})
		if r.measures != nil {
			r.measures.Collections.Set(float64(countCollections(datasets)))
		}
	}
	if r.measures != nil {
		r.measures.Refreshes.With(prometheus.Labels{OutcomeLabel: outcome}).Add(1)
		if r.cache.Healthy() {
			r.measures.Healthy.Set(1)
		} else {
			r.measures.Healthy.Set(0)
		}
	}
}

func countCollections(datasets map[string]DatasetSnapshot) int {
	total := 0
	for _, dataset := range datasets {
		total += len(dataset.Collections)
	}
	return total
}
