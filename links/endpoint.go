// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
	"github.com/prometheus/client_golang/prometheus"
)

func newLinksEndpoint(assembler *Assembler, measures *Measures) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		linksRequest := request.(*linksRequest)

		// Classification failure is the one request-fatal error; everything
		// downstream is contained to individual rows.
		id, err := Parse(linksRequest.id)
		if err != nil {
			if errors.Is(err, ErrInvalidIdentifier) {
				countOutcome(measures, RejectedOutcome)
				return nil, &BadRequestErr{Message: err.Error()}
			}
			countOutcome(measures, FailureOutcome)
			return nil, err
		}

		response, err := assembler.Assemble(ctx, id)
		if err != nil {
			countOutcome(measures, FailureOutcome)
			return nil, err
		}
		countOutcome(measures, SuccessOutcome)
		return response, nil
	}
}

func countOutcome(measures *Measures, outcome string) {
	if measures == nil {
		return
	}
	measures.Requests.With(prometheus.Labels{OutcomeLabel: outcome}).Add(1)
}
