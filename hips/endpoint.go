// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"context"

	"github.com/go-kit/kit/endpoint"
)

func newListEndpoint(cache *Cache) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		listRequest := request.(*listRequest)
		return cache.List(listRequest.dataset)
	}
}

func newCollectionsEndpoint(cache *Cache) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		listRequest := request.(*listRequest)
		collections, err := cache.Collections(listRequest.dataset)
		if err != nil {
			return nil, err
		}
		mapping := make(map[string]map[string]string, len(collections))
		for key, collection := range collections {
			mapping[key] = collection.Properties
		}
		return mapping, nil
	}
}
