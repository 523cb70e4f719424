// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	RefreshCounter   = "hips_refresh_total"
	CollectionsGauge = "hips_collections"
	HealthyGauge     = "hips_healthy"
)

// Labels
const (
	OutcomeLabel = "outcome"
)

// Label Values
const (
	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics returns the metrics relevant to this package.
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RefreshCounter,
				Help: "Counter for HiPS collection list refreshes by outcome.",
			},
			OutcomeLabel,
		),
		touchstone.Gauge(
			prometheus.GaugeOpts{
				Name: CollectionsGauge,
				Help: "Number of HiPS collections in the current cache snapshot.",
			},
		),
		touchstone.Gauge(
			prometheus.GaugeOpts{
				Name: HealthyGauge,
				Help: "Whether the most recent HiPS refresh succeeded (1) or failed (0).",
			},
		),
	)
}

type Measures struct {
	fx.In
	Refreshes   *prometheus.CounterVec `name:"hips_refresh_total"`
	Collections prometheus.Gauge       `name:"hips_collections"`
	Healthy     prometheus.Gauge       `name:"hips_healthy"`
}
