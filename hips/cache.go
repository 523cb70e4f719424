// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

// Package hips maintains an in-process cache of HiPS collection lists and
// serves them to unauthenticated list endpoints. The cache is read by any
// number of concurrent requests and written only by the background
// refresher, which publishes fully-built immutable snapshots.
package hips

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/astrofab/datalinker/model"
)

// State is the freshness of the cache as a whole.
type State int

const (
	// StateEmpty means no refresh has ever succeeded. Reads fail.
	StateEmpty State = iota

	// StateFresh means the last successful refresh is within the TTL.
	StateFresh

	// StateStale means the TTL has elapsed; reads still serve the last
	// known-good snapshot.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "empty"
	}
}

// NotReadyErr is returned for reads against a cache that has never been
// populated.
type NotReadyErr struct{}

func (nre NotReadyErr) Error() string {
	return "HiPS list is not yet available"
}

func (nre NotReadyErr) StatusCode() int {
	return http.StatusServiceUnavailable
}

// DatasetNotFoundErr is returned for reads of a dataset this deployment
// does not serve.
type DatasetNotFoundErr struct {
	Dataset string
}

func (dnfe DatasetNotFoundErr) Error() string {
	return "no HiPS dataset named " + dnfe.Dataset
}

func (dnfe DatasetNotFoundErr) StatusCode() int {
	return http.StatusNotFound
}

// DatasetSnapshot is the aggregated collection list for one dataset.
type DatasetSnapshot struct {
	// List is the HiPS list payload: the concatenation of every
	// collection's properties text, separated by blank lines.
	List string

	// Collections holds the per-collection records in fetch order.
	Collections []model.Collection
}

// Snapshot is one immutable, fully-built cache generation. Snapshots are
// never mutated after publication; a refresh builds a replacement and swaps
// it in atomically, so readers always observe a consistent mapping.
type Snapshot struct {
	Datasets    map[string]DatasetSnapshot
	LastRefresh time.Time
}

// Cache is the process-wide HiPS list cache.
type Cache struct {
	snapshot       atomic.Pointer[Snapshot]
	healthy        atomic.Bool
	defaultDataset string
	ttl            time.Duration
	now            func() time.Time
}

// NewCache creates an empty cache. It stays empty, and reads fail, until
// the first successful refresh publishes a snapshot.
func NewCache(defaultDataset string, ttl time.Duration) *Cache {
	return &Cache{
		defaultDataset: defaultDataset,
		ttl:            ttl,
		now:            time.Now,
	}
}

// publish atomically replaces the current snapshot and clears any prior
// refresh failure.
func (c *Cache) publish(snapshot *Snapshot) {
	c.snapshot.Store(snapshot)
	c.healthy.Store(true)
}

// markUnhealthy records a failed refresh. The last snapshot, if any, keeps
// being served; the cache never reverts to empty once populated.
func (c *Cache) markUnhealthy() {
	c.healthy.Store(false)
}

// State reports the cache's current freshness.
func (c *Cache) State() State {
	snapshot := c.snapshot.Load()
	if snapshot == nil {
		return StateEmpty
	}
	if c.now().Sub(snapshot.LastRefresh) <= c.ttl {
		return StateFresh
	}
	return StateStale
}

// Healthy reports whether the most recent refresh attempt succeeded. A
// never-refreshed cache is not healthy.
func (c *Cache) Healthy() bool {
	return c.healthy.Load()
}

// List returns the HiPS list payload for a dataset. The empty dataset name
// selects the deployment's default dataset; with no default configured, the
// list is empty.
func (c *Cache) List(dataset string) (string, error) {
	if dataset == "" {
		if c.defaultDataset == "" {
			return "", nil
		}
		dataset = c.defaultDataset
	}
	snapshot := c.snapshot.Load()
	if snapshot == nil {
		return "", &NotReadyErr{}
	}
	datasetSnapshot, ok := snapshot.Datasets[dataset]
	if !ok {
		return "", &DatasetNotFoundErr{Dataset: dataset}
	}
	return datasetSnapshot.List, nil
}

// Collections returns the per-collection properties mapping for a dataset,
// keyed by collection key.
func (c *Cache) Collections(dataset string) (map[string]model.Collection, error) {
	if dataset == "" {
		if c.defaultDataset == "" {
			return map[string]model.Collection{}, nil
		}
		dataset = c.defaultDataset
	}
	snapshot := c.snapshot.Load()
	if snapshot == nil {
		return nil, &NotReadyErr{}
	}
	datasetSnapshot, ok := snapshot.Datasets[dataset]
	if !ok {
		return nil, &DatasetNotFoundErr{Dataset: dataset}
	}
	collections := make(map[string]model.Collection, len(datasetSnapshot.Collections))
	for _, collection := range datasetSnapshot.Collections {
		collections[collection.Key] = collection
	}
	return collections, nil
}
