// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"

	"github.com/astrofab/datalinker/hips"
	"github.com/astrofab/datalinker/links"
	"github.com/astrofab/datalinker/tap"
)

const (
	applicationName = "datalinker"

	apiBase = "api"
)

var (
	GitCommit = "undefined"
	Version   = "undefined"
	BuildTime = "undefined"
)

func main() {
	v, logger, err := setup(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app := fx.New(
		arrange.LoggerFunc(logger.Sugar().Infof),
		fx.Supply(logger, v),
		touchstone.Provide(),
		links.ProvideMetrics(),
		hips.ProvideMetrics(),
		links.ProvideHandlers(),
		hips.ProvideHandlers(),
		tap.ProvideHandlers(),
		provideConfig(),
		provideBackends(),
		provideServerInstrumenters(),
		fx.Provide(
			func(v *viper.Viper) (touchstone.Config, error) {
				var config touchstone.Config
				err := v.UnmarshalKey("prometheus", &config)
				return config, err
			},
			func(v *viper.Viper) (candlelight.Config, error) {
				var config candlelight.Config
				err := v.UnmarshalKey("tracing", &config)
				if err != nil {
					return candlelight.Config{}, err
				}
				config.ApplicationName = applicationName
				return config, nil
			},
			candlelight.New,
		),

		fx.Invoke(
			BuildPrimaryRoutes,
			BuildMetricsRoutes,
			BuildHealthRoutes,
		),
	)

	switch err := app.Err(); {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err == nil:
		app.Run()
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
