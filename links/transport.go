// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	kithttp "github.com/go-kit/kit/transport/http"
)

// request URL query keys, lowercased. The DataLink standard requires query
// parameters to be matched case-insensitively.
const (
	idQueryKey             = "id"
	responseFormatQueryKey = "responseformat"
)

const (
	idMissingMsg         = "ID query parameter is required"
	badResponseFormatMsg = "RESPONSEFORMAT must be votable or application/x-votable+xml"
)

// ErrorHeaderKey carries the error message of failed requests, in addition
// to the plain-text body.
const ErrorHeaderKey = "X-Datalink-Error"

// ErrCasting indicates there was a wiring mistake with the go-kit style
// encoders.
var ErrCasting = errors.New("casting error due to middleware wiring mistake")

var acceptedResponseFormats = map[string]bool{
	"votable":                   true,
	"application/x-votable+xml": true,
}

type linksRequest struct {
	id string
}

// transportConfig carries the rendering knobs the response encoder needs.
type transportConfig struct {
	// defaultLifetime caps response cacheability when no link in the
	// response carries an expiring URL.
	defaultLifetime time.Duration

	now func() time.Time
}

func decodeLinksRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	query := lowercaseQueryKeys(r)

	id := query[idQueryKey]
	if id == "" {
		return nil, &BadRequestErr{Message: idMissingMsg}
	}
	if format, ok := query[responseFormatQueryKey]; ok && format != "" {
		if !acceptedResponseFormats[strings.ToLower(format)] {
			return nil, &BadRequestErr{Message: badResponseFormatMsg}
		}
	}
	return &linksRequest{id: id}, nil
}

// lowercaseQueryKeys flattens the request query to a map with lowercased
// keys, keeping the first value of each parameter.
func lowercaseQueryKeys(r *http.Request) map[string]string {
	flattened := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		lower := strings.ToLower(key)
		if _, ok := flattened[lower]; !ok {
			flattened[lower] = values[0]
		}
	}
	return flattened
}

func encodeLinksResponse(config *transportConfig) kithttp.EncodeResponseFunc {
	return func(ctx context.Context, rw http.ResponseWriter, value interface{}) error {
		response, ok := value.(*Response)
		if !ok {
			return ErrCasting
		}

		body, err := RenderVOTable(response)
		if err != nil {
			return err
		}

		maxAge := config.defaultLifetime
		if response.HasExpiry {
			maxAge = response.Expiry.Sub(config.now())
			if maxAge < 0 {
				maxAge = 0
			}
		}

		rw.Header().Set("Content-Type", VOTableContentType)
		rw.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int64(maxAge.Seconds())))
		rw.Write(body)
		return nil
	}
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(ErrorHeaderKey, err.Error())
	if headerer, ok := err.(kithttp.Headerer); ok {
		for k, values := range headerer.Headers() {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
	}
	code := http.StatusInternalServerError
	if sc, ok := err.(kithttp.StatusCoder); ok {
		code = sc.StatusCode()
	}
	w.WriteHeader(code)
	fmt.Fprintln(w, err.Error())
}
