// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package tap

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the TAP microservice endpoints.
type Config struct {
	// MetadataDir holds the schema-generated column set files. An empty
	// dir disables column restriction by detail level. (Optional)
	MetadataDir string

	// SyncPath is the path of the synchronous TAP query endpoint
	// redirects point at. (Optional) Defaults to /api/tap/sync.
	SyncPath string
}

// ProvideHandlers loads the TAP column metadata and builds the redirect
// handlers.
func ProvideHandlers() fx.Option {
	return fx.Provide(
		newMetadataComponent,

		fx.Annotated{
			Name: "cone_search_handler",
			Target: func(config Config, logger *zap.Logger) Handler {
				return newConeSearchHandler(config, logger)
			},
		},
		fx.Annotated{
			Name: "timeseries_handler",
			Target: func(config Config, metadata Metadata, logger *zap.Logger) Handler {
				return newTimeseriesHandler(config, metadata, logger)
			},
		},
	)
}

func newMetadataComponent(config Config) (Metadata, error) {
	return LoadMetadata(config.MetadataDir)
}
