// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package tap

import (
	"context"
	"net/url"

	"github.com/go-kit/kit/endpoint"
	"go.uber.org/zap"
)

const defaultSyncPath = "/api/tap/sync"

func newConeSearchEndpoint(config Config, logger *zap.Logger) endpoint.Endpoint {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		coneSearchRequest := request.(*coneSearchRequest)
		return redirectFor(config, buildConeSearchQuery(coneSearchRequest), logger), nil
	}
}

func newTimeseriesEndpoint(config Config, metadata Metadata, logger *zap.Logger) endpoint.Endpoint {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		timeseriesRequest := request.(*timeseriesRequest)
		return redirectFor(config, buildTimeseriesQuery(timeseriesRequest, metadata), logger), nil
	}
}

// redirectFor builds the URL of a synchronous TAP query running the given
// ADQL.
func redirectFor(config Config, adql string, logger *zap.Logger) string {
	syncPath := config.SyncPath
	if syncPath == "" {
		syncPath = defaultSyncPath
	}
	params := url.Values{}
	params.Set("LANG", "ADQL")
	params.Set("REQUEST", "doQuery")
	params.Set("QUERY", adql)
	location := syncPath + "?" + params.Encode()
	logger.Info("redirecting to TAP", zap.String("location", location))
	return location
}
