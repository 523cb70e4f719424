// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
)

// Handler wraps the HTTP handlers serving the HiPS list endpoints.
type Handler http.Handler

func newDefaultListHandler(cache *Cache) Handler {
	return kithttp.NewServer(
		newListEndpoint(cache),
		decodeDefaultListRequest,
		encodeListResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newDatasetListHandler(cache *Cache) Handler {
	return kithttp.NewServer(
		newListEndpoint(cache),
		decodeDatasetRequest,
		encodeListResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}

func newCollectionsHandler(cache *Cache) Handler {
	return kithttp.NewServer(
		newCollectionsEndpoint(cache),
		decodeDatasetRequest,
		encodeCollectionsResponse,
		kithttp.ServerErrorEncoder(encodeError),
	)
}
