// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/astrofab/datalinker/butler"
	"github.com/astrofab/datalinker/discovery"
	"github.com/astrofab/datalinker/hips"
	"github.com/astrofab/datalinker/links"
	"github.com/astrofab/datalinker/storage"
	"github.com/astrofab/datalinker/tap"
)

// config keys
const (
	datalinkConfigKey  = "datalink"
	registryConfigKey  = "registry"
	storageConfigKey   = "storage"
	discoveryConfigKey = "discovery"
	hipsConfigKey      = "hips"
	tapConfigKey       = "tap"
	serversConfigKey   = "servers"
)

var validate = validator.New()

// ServerConfig holds the listen configuration for one of the app's
// servers. A server with an empty address is disabled.
type ServerConfig struct {
	Address string
}

type ServersConfig struct {
	Primary ServerConfig
	Metrics ServerConfig
	Health  ServerConfig
}

// HealthPath is the URL path the health server answers on.
type HealthPath string

// MetricsPath is the URL path the metrics server answers on.
type MetricsPath string

func provideConfig() fx.Option {
	return fx.Provide(
		func(v *viper.Viper) (links.Config, error) {
			var config links.Config
			err := unmarshalKey(v, datalinkConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) (butler.Config, error) {
			var config butler.Config
			err := unmarshalKey(v, registryConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) (storage.Config, error) {
			var config storage.Config
			err := unmarshalKey(v, storageConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) (discovery.Config, error) {
			var config discovery.Config
			err := unmarshalKey(v, discoveryConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) (hips.Config, error) {
			var config hips.Config
			err := unmarshalKey(v, hipsConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) (tap.Config, error) {
			var config tap.Config
			err := unmarshalKey(v, tapConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) (ServersConfig, error) {
			var config ServersConfig
			err := unmarshalKey(v, serversConfigKey, &config)
			return config, err
		},
		func(v *viper.Viper) HealthPath {
			path := v.GetString("servers.health.path")
			if path == "" {
				path = "/health"
			}
			return HealthPath(path)
		},
		func(v *viper.Viper) MetricsPath {
			path := v.GetString("servers.metrics.path")
			if path == "" {
				path = "/metrics"
			}
			return MetricsPath(path)
		},
	)
}

func unmarshalKey(v *viper.Viper, key string, out interface{}) error {
	if err := v.UnmarshalKey(key, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", key, err)
	}
	return nil
}

// provideBackends adapts the configured backend clients to the collaborator
// contracts the link assembler consumes. The signer and the cutout service
// locator are optional backends; leaving them unconfigured yields nil
// collaborators and the assembler degrades per capability.
func provideBackends() fx.Option {
	return fx.Provide(
		newStorageResolver,
		newSigner,
		newCutoutLocator,
	)
}

func newStorageResolver(config butler.Config, logger *zap.Logger) (links.StorageResolver, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", registryConfigKey, err)
	}
	return butler.New(config, logger)
}

func newSigner(config storage.Config) (links.Signer, error) {
	if config.Region == "" && config.Endpoint == "" {
		return nil, nil
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", storageConfigKey, err)
	}
	return storage.New(config)
}

func newCutoutLocator(config discovery.Config, logger *zap.Logger) (links.CutoutLocator, error) {
	if config.Address == "" && len(config.Endpoints) == 0 {
		return nil, nil
	}
	return discovery.New(config, logger), nil
}
