// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/httpaux"
	"github.com/xmidt-org/httpaux/recovery"
	"github.com/xmidt-org/touchstone/touchhttp"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/astrofab/datalinker/hips"
	"github.com/astrofab/datalinker/links"
	"github.com/astrofab/datalinker/tap"
)

type PrimaryHandlersIn struct {
	fx.In
	Links           links.Handler `name:"links_handler"`
	ConeSearch      tap.Handler   `name:"cone_search_handler"`
	Timeseries      tap.Handler   `name:"timeseries_handler"`
	HipsList        hips.Handler  `name:"hips_list_handler"`
	HipsDatasetList hips.Handler  `name:"hips_dataset_list_handler"`
	HipsMapping     hips.Handler  `name:"hips_mapping_handler"`
}

type PrimaryRoutesIn struct {
	fx.In
	Servers        ServersConfig
	PrimaryMetrics touchhttp.ServerInstrumenter `name:"servers.primary.metrics"`
	Handlers       PrimaryHandlersIn
	Tracing        candlelight.Tracing
	Logger         *zap.Logger
	Lifecycle      fx.Lifecycle
}

type MetricsRoutesIn struct {
	fx.In
	Servers   ServersConfig
	Gatherer  prometheus.Gatherer
	Path      MetricsPath
	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
}

type HealthRoutesIn struct {
	fx.In
	Servers       ServersConfig
	HealthMetrics touchhttp.ServerInstrumenter `name:"servers.health.metrics"`
	Path          HealthPath
	Logger        *zap.Logger
	Lifecycle     fx.Lifecycle
}

func provideServerInstrumenters() fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name: "servers.primary.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "primary",
			),
		},
		fx.Annotated{
			Name: "servers.health.metrics",
			Target: touchhttp.ServerBundle{}.NewInstrumenter(
				touchhttp.ServerLabel, "health",
			),
		},
	)
}

func newPrimaryHandler(in PrimaryRoutesIn) http.Handler {
	router := mux.NewRouter()
	options := []otelmux.Option{
		otelmux.WithTracerProvider(in.Tracing.TracerProvider()),
		otelmux.WithPropagators(in.Tracing.Propagator()),
	}
	router.Use(otelmux.Middleware(applicationName, options...))

	api := router.PathPrefix("/" + apiBase).Subrouter()
	api.Handle("/datalink/links", in.Handlers.Links).Methods(http.MethodGet)
	api.Handle("/datalink/cone_search", in.Handlers.ConeSearch).Methods(http.MethodGet)
	api.Handle("/datalink/timeseries", in.Handlers.Timeseries).Methods(http.MethodGet)
	api.Handle("/hips/list", in.Handlers.HipsList).Methods(http.MethodGet)
	api.Handle("/hips/v2/{dataset}/list", in.Handlers.HipsDatasetList).Methods(http.MethodGet)
	api.Handle("/hips/v2/{dataset}/collections", in.Handlers.HipsMapping).Methods(http.MethodGet)

	chain := alice.New(
		recovery.Middleware(recovery.WithStatusCode(555)),
		candlelight.EchoFirstTraceNodeInfo(in.Tracing, false),
	)
	return in.PrimaryMetrics.Then(chain.Then(router))
}

func BuildPrimaryRoutes(in PrimaryRoutesIn) {
	if in.Servers.Primary.Address == "" {
		return
	}
	serveOnLifecycle("primary", in.Servers.Primary.Address, newPrimaryHandler(in), in.Lifecycle, in.Logger)
}

func BuildMetricsRoutes(in MetricsRoutesIn) {
	if in.Servers.Metrics.Address == "" {
		return
	}

	router := mux.NewRouter()
	router.Handle(string(in.Path),
		promhttp.HandlerFor(in.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	serveOnLifecycle("metrics", in.Servers.Metrics.Address, router, in.Lifecycle, in.Logger)
}

func BuildHealthRoutes(in HealthRoutesIn) {
	if in.Servers.Health.Address == "" {
		return
	}

	router := mux.NewRouter()
	router.Handle(string(in.Path), httpaux.ConstantHandler{
		StatusCode: http.StatusOK,
	}).Methods(http.MethodGet)
	serveOnLifecycle("health", in.Servers.Health.Address, in.HealthMetrics.Then(router), in.Lifecycle, in.Logger)
}

// serveOnLifecycle binds a server to the fx application lifecycle. Listen
// errors surface at startup; errors from an already-serving listener are
// only logged.
func serveOnLifecycle(name, address string, handler http.Handler, lifecycle fx.Lifecycle, logger *zap.Logger) {
	server := &http.Server{
		Addr:    address,
		Handler: handler,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, err := net.Listen("tcp", address)
			if err != nil {
				return err
			}
			logger.Info("starting server", zap.String("server", name), zap.String("address", address))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server exited", zap.String("server", name), zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: server.Shutdown,
	})
}
