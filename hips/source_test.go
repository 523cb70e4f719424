// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProperties = `creator_did              = ivo://astrofab/dp02/color_gri
obs_title                = DP02 color gri
dataproduct_type         = image
# a comment line
hips_release_date        = 2025-06-01T00:00:00Z
hips_status              = public master clonableOnce
`

func TestInjectServiceURL(t *testing.T) {
	assert := assert.New(t)
	rewritten := injectServiceURL(testProperties, "https://hips.example.org/dp02/images/color_gri")

	lines := strings.Split(rewritten, "\n")
	var serviceLine, statusLine int
	for i, line := range lines {
		if strings.HasPrefix(line, "hips_service_url") {
			serviceLine = i
		}
		if strings.HasPrefix(line, "hips_status") {
			statusLine = i
		}
	}
	assert.Equal(serviceLine+1, statusLine, "hips_service_url must sit right above hips_status")
	assert.Contains(rewritten, "hips_service_url         = https://hips.example.org/dp02/images/color_gri")
}

func TestParseProperties(t *testing.T) {
	assert := assert.New(t)
	properties := parseProperties(testProperties)

	assert.Equal("ivo://astrofab/dp02/color_gri", properties["creator_did"])
	assert.Equal("DP02 color gri", properties["obs_title"])
	assert.Equal("public master clonableOnce", properties["hips_status"])
	assert.NotContains(properties, "# a comment line")
}

func TestListCollections(t *testing.T) {
	requests := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, r *http.Request) {
			requests[r.URL.Path]++
			if r.Header.Get("Authorization") != "Bearer secret" {
				rw.WriteHeader(http.StatusUnauthorized)
				return
			}
			if strings.Contains(r.URL.Path, "band_u") {
				rw.WriteHeader(http.StatusNotFound)
				return
			}
			rw.Write([]byte(testProperties))
		}))
	defer server.Close()

	assert := assert.New(t)
	source := NewHTTPSource(Config{
		Token: "secret",
		Datasets: map[string]DatasetConfig{
			"dp02": {
				URL:   server.URL + "/dp02",
				Paths: []string{"images/color_gri", "images/band_u"},
			},
		},
	}, nil, nil)

	datasets, err := source.ListCollections(context.Background())
	require.NoError(t, err)
	require.Contains(t, datasets, "dp02")

	// The missing tree is skipped; the rest of the list still builds.
	dataset := datasets["dp02"]
	require.Len(t, dataset.Collections, 1)
	collection := dataset.Collections[0]
	assert.Equal("images/color_gri", collection.Key)
	assert.Equal(server.URL+"/dp02/images/color_gri", collection.URL)
	assert.Equal(server.URL+"/dp02/images/color_gri", collection.Properties["hips_service_url"])
	assert.Contains(dataset.List, "hips_service_url")
	assert.Equal(1, requests["/dp02/images/color_gri/properties"])
	assert.Equal(1, requests["/dp02/images/band_u/properties"])
}

func TestListCollectionsAllFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusBadGateway)
		}))
	defer server.Close()

	source := NewHTTPSource(Config{
		Datasets: map[string]DatasetConfig{
			"dp02": {
				URL:   server.URL + "/dp02",
				Paths: []string{"images/color_gri"},
			},
		},
	}, nil, nil)

	_, err := source.ListCollections(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestListCollectionsCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, r *http.Request) {
			rw.Write([]byte(testProperties))
		}))
	defer server.Close()

	source := NewHTTPSource(Config{
		Datasets: map[string]DatasetConfig{
			"dp02": {
				URL:   server.URL + "/dp02",
				Paths: []string{"images/color_gri"},
			},
		},
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := source.ListCollections(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
