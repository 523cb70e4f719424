// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
)

type Handler http.Handler

func newLinksHandler(assembler *Assembler, config *transportConfig, measures *Measures) Handler {
	return kithttp.NewServer(
		newLinksEndpoint(assembler, measures),
		decodeLinksRequest,
		encodeLinksResponse(config),
		kithttp.ServerErrorEncoder(encodeError),
	)
}
