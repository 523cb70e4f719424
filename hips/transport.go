// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package hips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
)

// request URL path keys
const (
	datasetVarKey = "dataset"
)

const datasetVarMissingMsg = "{dataset} URL path parameter missing"

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

type listRequest struct {
	// dataset is empty for the legacy endpoint serving the default
	// dataset.
	dataset string
}

func decodeDefaultListRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	return &listRequest{}, nil
}

func decodeDatasetRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	dataset, ok := mux.Vars(r)[datasetVarKey]
	if !ok {
		return nil, &BadRequestErr{Message: datasetVarMissingMsg}
	}
	return &listRequest{dataset: dataset}, nil
}

func encodeListResponse(ctx context.Context, rw http.ResponseWriter, value interface{}) error {
	list, ok := value.(string)
	if !ok {
		return ErrCasting
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(rw, list)
	return nil
}

func encodeCollectionsResponse(ctx context.Context, rw http.ResponseWriter, value interface{}) error {
	mapping, ok := value.(map[string]map[string]string)
	if !ok {
		return ErrCasting
	}
	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.Write(data)
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
