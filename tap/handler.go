// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package tap

import (
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"go.uber.org/zap"
)

// Handler wraps the HTTP handlers serving TAP redirects.
type Handler http.Handler

func newConeSearchHandler(config Config, logger *zap.Logger) Handler {
	return kithttp.NewServer(
		newConeSearchEndpoint(config, logger),
		decodeConeSearchRequest,
		encodeRedirectResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newTimeseriesHandler(config Config, metadata Metadata, logger *zap.Logger) Handler {
	return kithttp.NewServer(
		newTimeseriesEndpoint(config, metadata, logger),
		decodeTimeseriesRequest,
		encodeRedirectResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}
