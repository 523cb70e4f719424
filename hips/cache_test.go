// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrofab/datalinker/model"
)

func testSnapshot(datasets map[string]DatasetSnapshot) *Snapshot {
	return &Snapshot{
		Datasets:    datasets,
		LastRefresh: time.Now(),
	}
}

func TestCacheEmptyReads(t *testing.T) {
	assert := assert.New(t)
	cache := NewCache("dp02", time.Minute)

	assert.Equal(StateEmpty, cache.State())
	assert.False(cache.Healthy())

	_, err := cache.List("")
	require.IsType(t, &NotReadyErr{}, err)
	var notReady *NotReadyErr
	require.ErrorAs(t, err, &notReady)
	assert.Equal(http.StatusServiceUnavailable, notReady.StatusCode())

	_, err = cache.Collections("dp02")
	assert.IsType(&NotReadyErr{}, err)
}

func TestCacheReadsAfterPublish(t *testing.T) {
	assert := assert.New(t)
	cache := NewCache("dp02", time.Minute)
	cache.publish(testSnapshot(map[string]DatasetSnapshot{
		"dp02": {
			List: "creator_did = ivo://astrofab/dp02",
			Collections: []model.Collection{
				{Key: "images/color_gri", Properties: map[string]string{"obs_title": "gri"}},
				{Key: "images/band_u", Properties: map[string]string{"obs_title": "u"}},
			},
		},
	}))

	assert.Equal(StateFresh, cache.State())
	assert.True(cache.Healthy())

	// The empty dataset name selects the default dataset.
	list, err := cache.List("")
	assert.NoError(err)
	assert.Equal("creator_did = ivo://astrofab/dp02", list)

	list, err = cache.List("dp02")
	assert.NoError(err)
	assert.Equal("creator_did = ivo://astrofab/dp02", list)

	_, err = cache.List("dp99")
	var notFound *DatasetNotFoundErr
	require.ErrorAs(t, err, &notFound)
	assert.Equal(http.StatusNotFound, notFound.StatusCode())
	assert.Contains(notFound.Error(), "dp99")

	collections, err := cache.Collections("dp02")
	assert.NoError(err)
	assert.Len(collections, 2)
	assert.Equal("gri", collections["images/color_gri"].Properties["obs_title"])
}

func TestCacheNoDefaultDataset(t *testing.T) {
	assert := assert.New(t)
	cache := NewCache("", time.Minute)

	// With no default dataset configured, the default list is empty rather
	// than an error, even before the first refresh.
	list, err := cache.List("")
	assert.NoError(err)
	assert.Empty(list)

	collections, err := cache.Collections("")
	assert.NoError(err)
	assert.Empty(collections)

	// Named reads still report readiness and existence as usual.
	_, err = cache.List("dp02")
	assert.IsType(&NotReadyErr{}, err)

	cache.publish(testSnapshot(map[string]DatasetSnapshot{"dp02": {List: "payload"}}))
	list, err = cache.List("")
	assert.NoError(err)
	assert.Empty(list)
}

func TestCacheFailedRefreshKeepsServing(t *testing.T) {
	assert := assert.New(t)
	cache := NewCache("dp02", time.Minute)
	cache.publish(testSnapshot(map[string]DatasetSnapshot{
		"dp02": {List: "payload"},
	}))

	cache.markUnhealthy()

	// Health degrades but the last snapshot keeps being served; a
	// populated cache never reverts to empty.
	assert.False(cache.Healthy())
	list, err := cache.List("")
	assert.NoError(err)
	assert.Equal("payload", list)
	assert.NotEqual(StateEmpty, cache.State())
}

func TestCacheStaleness(t *testing.T) {
	assert := assert.New(t)
	cache := NewCache("dp02", time.Minute)
	cache.publish(testSnapshot(map[string]DatasetSnapshot{"dp02": {List: "payload"}}))

	assert.Equal(StateFresh, cache.State())

	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(StateStale, cache.State())

	list, err := cache.List("")
	assert.NoError(err)
	assert.Equal("payload", list)
}

func TestCacheSnapshotConsistency(t *testing.T) {
	assert := assert.New(t)
	cache := NewCache("dp02", time.Minute)

	// Writers alternate between two generations where the list payload and
	// the collection key always agree. A torn read would observe a mix.
	generation := func(n int) *Snapshot {
		key := fmt.Sprintf("gen-%d", n)
		return testSnapshot(map[string]DatasetSnapshot{
			"dp02": {
				List:        key,
				Collections: []model.Collection{{Key: key}},
			},
		})
	}
	cache.publish(generation(0))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 1; ; n++ {
			select {
			case <-stop:
				return
			default:
				cache.publish(generation(n))
			}
		}
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				list, err := cache.List("")
				assert.NoError(err)
				assert.Contains(list, "gen-")

				// Each read is of one generation; the collection key always
				// agrees with the list payload of its own snapshot.
				collections, err := cache.Collections("")
				assert.NoError(err)
				for key, collection := range collections {
					assert.Equal(key, collection.Key)
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()
}
