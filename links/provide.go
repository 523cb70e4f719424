// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultLinksLifetime = time.Hour

// Config holds the deployment-wide link capability configuration.
type Config struct {
	// CutoutEnabled turns on SODA cutout descriptors for image
	// identifiers. This flag is deployment-wide, not per identifier.
	CutoutEnabled bool

	// Lifetime should match the lifetime of signed URLs produced by the
	// storage backend. Defaults to one hour.
	Lifetime time.Duration `validate:"gte=0"`
}

type assemblerIn struct {
	fx.In

	Config  Config
	Storage StorageResolver
	Signer  Signer        `optional:"true"`
	Cutout  CutoutLocator `optional:"true"`
	Logger  *zap.Logger
}

type handlerIn struct {
	fx.In

	Assembler *Assembler
	Config    *transportConfig
	Measures  Measures
}

// ProvideHandlers fetches all dependencies and builds the DataLink links
// handler.
func ProvideHandlers() fx.Option {
	return fx.Provide(
		newAssemblerComponent,
		newTransportConfig,

		fx.Annotated{
			Name:   "links_handler",
			Target: newHandlerComponent,
		},
	)
}

func newAssemblerComponent(in assemblerIn) *Assembler {
	capabilities := Capabilities{
		Cutout:   in.Config.CutoutEnabled,
		Lifetime: in.Config.Lifetime,
	}
	if capabilities.Lifetime == 0 {
		capabilities.Lifetime = defaultLinksLifetime
	}
	return NewAssembler(in.Storage, in.Signer, in.Cutout, capabilities, in.Logger)
}

func newTransportConfig(config Config) *transportConfig {
	lifetime := config.Lifetime
	if lifetime == 0 {
		lifetime = defaultLinksLifetime
	}
	return &transportConfig{
		defaultLifetime: lifetime,
		now:             time.Now,
	}
}

func newHandlerComponent(in handlerIn) Handler {
	return newLinksHandler(in.Assembler, in.Config, &in.Measures)
}
