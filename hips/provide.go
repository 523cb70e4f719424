// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type sourceIn struct {
	fx.In

	Config     Config
	HTTPClient *http.Client `optional:"true"`
	Logger     *zap.Logger
}

type refresherIn struct {
	fx.In

	Config    Config
	Source    Source
	Cache     *Cache
	Measures  Measures
	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
}

// ProvideHandlers builds the HiPS list cache, its background refresher and
// the HTTP handlers serving the cached payloads. The refresher is invoked
// rather than provided so it runs even though nothing consumes it.
func ProvideHandlers() fx.Option {
	return fx.Options(
		fx.Provide(
			newCacheComponent,
			newSourceComponent,

			fx.Annotated{
				Name: "hips_list_handler",
				Target: func(cache *Cache) Handler {
					return newDefaultListHandler(cache)
				},
			},
			fx.Annotated{
				Name: "hips_dataset_list_handler",
				Target: func(cache *Cache) Handler {
					return newDatasetListHandler(cache)
				},
			},
			fx.Annotated{
				Name: "hips_mapping_handler",
				Target: func(cache *Cache) Handler {
					return newCollectionsHandler(cache)
				},
			},
		),
		fx.Invoke(newRefresherComponent),
	)
}

func newCacheComponent(config Config) *Cache {
	ttl := config.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	return NewCache(config.DefaultDataset, ttl)
}

func newSourceComponent(in sourceIn) Source {
	return NewHTTPSource(in.Config, in.HTTPClient, in.Logger)
}

func newRefresherComponent(in refresherIn) (*Refresher, error) {
	refresher, err := NewRefresher(in.Source, in.Cache, in.Config.PullInterval, &in.Measures, in.Logger)
	if err != nil {
		return nil, err
	}
	in.Lifecycle.Append(fx.Hook{
		OnStart: refresher.Start,
		OnStop:  refresher.Stop,
	})
	return refresher, nil
}
