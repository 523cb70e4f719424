// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/astrofab/datalinker/model"
)

// ErrSourceUnavailable is reported when a refresh could not fetch anything
// at all. Partial fetches, where at least one collection succeeded, are not
// failures.
var ErrSourceUnavailable = errors.New("HiPS collection source unavailable")

var (
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errDoRequestFailure   = errors.New("http client failed while sending request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
)

const errWrappedFmt = "%w: %s"

// Upstream properties files don't contain their own service URL, but the
// HiPS list format requires one per entry. It is injected right before the
// hips_status line.
var hipsStatusLineRegex = regexp.MustCompile("(?m)^hips_status")

// DatasetConfig describes where one dataset's HiPS trees are served from.
type DatasetConfig struct {
	// URL is the base URL of the dataset's HiPS service.
	URL string `validate:"required,url"`

	// Paths lists the HiPS trees to include for this dataset, e.g.
	// images/color_gri.
	Paths []string `validate:"min=1"`
}

// Config configures the HiPS cache subsystem.
type Config struct {
	// Datasets maps dataset names (e.g. dp02) to their HiPS trees.
	Datasets map[string]DatasetConfig

	// DefaultDataset is served by the unversioned list endpoint.
	DefaultDataset string

	// Token is sent as a bearer token when fetching properties files.
	// (Optional)
	Token string

	// TTL is how long a successful refresh is considered fresh.
	// (Optional) Defaults to 15 minutes.
	TTL time.Duration

	// PullInterval is how often the background refresher runs.
	// (Optional) Defaults to 5 minutes.
	PullInterval time.Duration
}

// Source enumerates the full collection set for every configured dataset.
type Source interface {
	ListCollections(ctx context.Context) (map[string]DatasetSnapshot, error)
}

// HTTPSource fetches HiPS properties files over HTTP.
type HTTPSource struct {
	client   *http.Client
	datasets map[string]DatasetConfig
	token    string
	logger   *zap.Logger
	now      func() time.Time
}

// NewHTTPSource creates a Source over the configured datasets.
func NewHTTPSource(config Config, client *http.Client, logger *zap.Logger) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		client:   client,
		datasets: config.Datasets,
		token:    config.Token,
		logger:   logger,
		now:      time.Now,
	}
}

// ListCollections fetches every configured tree's properties file and
// aggregates them per dataset. Individual fetch failures are logged and
// skipped; only a refresh that produced nothing at all is an error.
func (s *HTTPSource) ListCollections(ctx context.Context) (map[string]DatasetSnapshot, error) {
	datasets := make(map[string]DatasetSnapshot, len(s.datasets))
	fetched := 0
	attempted := 0

	for name, dataset := range s.datasets {
		baseURL := strings.TrimSuffix(dataset.URL, "/")
		collections := make([]model.Collection, 0, len(dataset.Paths))
		texts := make([]string, 0, len(dataset.Paths))

		for _, path := range dataset.Paths {
			attempted++
			collection, err := s.fetchCollection(ctx, baseURL, path)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Warn("unable to get HiPS properties",
					zap.String("dataset", name), zap.String("path", path), zap.Error(err))
				continue
			}
			fetched++
			collections = append(collections, collection)
			texts = append(texts, collection.Text)
		}

		datasets[name] = DatasetSnapshot{
			List:        strings.Join(texts, "\n"),
			Collections: collections,
		}
	}

	if attempted > 0 && fetched == 0 {
		return nil, fmt.Errorf("%w: all %d properties fetches failed", ErrSourceUnavailable, attempted)
	}
	return datasets, nil
}

func (s *HTTPSource) fetchCollection(ctx context.Context, baseURL, path string) (model.Collection, error) {
	serviceURL := baseURL + "/" + path
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL+"/properties", nil)
	if err != nil {
		return model.Collection{}, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	if s.token != "" {
		r.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(r)
	if err != nil {
		return model.Collection{}, fmt.Errorf(errWrappedFmt, errDoRequestFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Collection{}, fmt.Errorf("%w: received status %v", ErrSourceUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Collection{}, fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}

	text := injectServiceURL(string(body), serviceURL)
	return model.Collection{
		Key:        path,
		URL:        serviceURL,
		Properties: parseProperties(text),
		Text:       text,
		Refreshed:  s.now(),
	}, nil
}

// injectServiceURL adds the mandatory hips_service_url entry to a
// properties payload, immediately before its hips_status line.
func injectServiceURL(properties, serviceURL string) string {
	entry := fmt.Sprintf("%-25s= %s", "hips_service_url", serviceURL)
	return hipsStatusLineRegex.ReplaceAllString(properties, entry+"\nhips_status")
}

// parseProperties reads a HiPS properties payload into a key/value map.
// Lines are "key = value"; # starts a comment.
func parseProperties(text string) map[string]string {
	properties := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		properties[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return properties
}
