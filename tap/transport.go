// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package tap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	kithttp "github.com/go-kit/kit/transport/http"
)

// request URL query keys
const (
	tableQueryKey          = "table"
	raColQueryKey          = "ra_col"
	decColQueryKey         = "dec_col"
	raValQueryKey          = "ra_val"
	decValQueryKey         = "dec_val"
	radiusQueryKey         = "radius"
	idQueryKey             = "id"
	idColumnQueryKey       = "id_column"
	bandColumnQueryKey     = "band_column"
	bandQueryKey           = "band"
	detailQueryKey         = "detail"
	joinTimeColumnQueryKey = "join_time_column"
)

// ErrorHeaderKey carries the error message of failed requests.
const ErrorHeaderKey = "X-Datalink-Error"

// ErrCasting indicates there was a wiring mistake with the go-kit style
// encoders.
var ErrCasting = errors.New("casting error due to middleware wiring mistake")

// BadRequestErr is a client error carrying an HTTP 400 status.
type BadRequestErr struct {
	Message string
}

func (bre BadRequestErr) Error() string {
	return bre.Message
}

func (bre BadRequestErr) StatusCode() int {
	return http.StatusBadRequest
}

func decodeConeSearchRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	request := &coneSearchRequest{}

	var err error
	if request.table, err = patternParam(query, tableQueryKey, compoundTableRegex); err != nil {
		return nil, err
	}
	if request.raCol, err = patternParam(query, raColQueryKey, identifierRegex); err != nil {
		return nil, err
	}
	if request.decCol, err = patternParam(query, decColQueryKey, identifierRegex); err != nil {
		return nil, err
	}
	if request.raVal, err = floatParam(query, raValQueryKey); err != nil {
		return nil, err
	}
	if request.decVal, err = floatParam(query, decValQueryKey); err != nil {
		return nil, err
	}
	if request.radius, err = floatParam(query, radiusQueryKey); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeTimeseriesRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	request := &timeseriesRequest{
		bandColumn: "band",
		band:       BandAll,
		detail:     DetailFull,
	}

	var err error
	if request.id, err = intParam(query, idQueryKey); err != nil {
		return nil, err
	}
	if request.table, err = patternParam(query, tableQueryKey, compoundTableRegex); err != nil {
		return nil, err
	}
	if request.idColumn, err = patternParam(query, idColumnQueryKey, identifierRegex); err != nil {
		return nil, err
	}
	if query.Has(bandColumnQueryKey) {
		if request.bandColumn, err = patternParam(query, bandColumnQueryKey, identifierRegex); err != nil {
			return nil, err
		}
	}
	if band := query.Get(bandQueryKey); band != "" {
		if !validBands[Band(band)] {
			return nil, &BadRequestErr{Message: fmt.Sprintf("invalid %s parameter value %q", bandQueryKey, band)}
		}
		request.band = Band(band)
	}
	if detail := query.Get(detailQueryKey); detail != "" {
		if !validDetails[Detail(detail)] {
			return nil, &BadRequestErr{Message: fmt.Sprintf("invalid %s parameter value %q", detailQueryKey, detail)}
		}
		request.detail = Detail(detail)
	}
	if query.Has(joinTimeColumnQueryKey) {
		if request.joinTimeColumn, err = patternParam(query, joinTimeColumnQueryKey, foreignColumnRegex); err != nil {
			return nil, err
		}
	}
	return request, nil
}

func patternParam(query url.Values, key string, pattern *regexp.Regexp) (string, error) {
	value := query.Get(key)
	if value == "" {
		return "", &BadRequestErr{Message: fmt.Sprintf("missing %s parameter", key)}
	}
	if !pattern.MatchString(value) {
		return "", &BadRequestErr{Message: fmt.Sprintf("invalid %s parameter value %q", key, value)}
	}
	return value, nil
}

func floatParam(query url.Values, key string) (float64, error) {
	value := query.Get(key)
	if value == "" {
		return 0, &BadRequestErr{Message: fmt.Sprintf("missing %s parameter", key)}
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &BadRequestErr{Message: fmt.Sprintf("invalid %s parameter value %q", key, value)}
	}
	return parsed, nil
}

func intParam(query url.Values, key string) (int64, error) {
	value := query.Get(key)
	if value == "" {
		return 0, &BadRequestErr{Message: fmt.Sprintf("missing %s parameter", key)}
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &BadRequestErr{Message: fmt.Sprintf("invalid %s parameter value %q", key, value)}
	}
	return parsed, nil
}

func encodeRedirectResponse(ctx context.Context, rw http.ResponseWriter, value interface{}) error {
	location, ok := value.(string)
	if !ok {
		return ErrCasting
	}
	rw.Header().Set("Location", location)
	rw.WriteHeader(http.StatusTemporaryRedirect)
	return nil
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(ErrorHeaderKey, err.Error())
	code := http.StatusInternalServerError
	if sc, ok := err.(kithttp.StatusCoder); ok {
		code = sc.StatusCode()
	}
	w.WriteHeader(code)
	fmt.Fprintln(w, err.Error())
}
