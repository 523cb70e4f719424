// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

// Package butler is an HTTP client for the dataset registry. It resolves
// parsed dataset identifiers to byte-addressable object references.
package butler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/astrofab/datalinker/links"
)

var (
	ErrAddressEmpty = errors.New("registry address is required")

	errNonSuccessResponse = errors.New("registry responded with a non-success status code")
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errDoRequestFailure   = errors.New("http client failed while sending request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
	errJSONUnmarshal      = errors.New("failed unmarshaling JSON response payload")
	errUnsupportedURI     = errors.New("registry returned a URI with an unsupported scheme")
)

const (
	datasetsAPIPathFmt = "/api/v1/repos/%s/datasets/%s"
	errWrappedFmt      = "%w: %s"
	errStatusCodeFmt   = "%w: received status %v"
)

// Config contains config data for the registry client.
type Config struct {
	// Address is the registry URL (i.e. https://registry.example.org).
	Address string `validate:"required,url"`

	// Token is sent as a bearer token on every request.
	// (Optional) If not set, no Authorization header is added.
	Token string

	// HTTPClient refers to the client that will be used to send requests.
	// (Optional) Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client resolves dataset identifiers against the registry.
type Client struct {
	client  *http.Client
	address string
	token   string
	logger  *zap.Logger
}

// dataset is the registry's representation of one dataset.
type dataset struct {
	URI         string `json:"uri"`
	Size        *int64 `json:"size"`
	DatasetType string `json:"dataset_type"`
}

// New creates a registry client that implements links.StorageResolver.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if config.Address == "" {
		return nil, ErrAddressEmpty
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client:  config.HTTPClient,
		address: strings.TrimSuffix(config.Address, "/"),
		token:   config.Token,
		logger:  logger,
	}, nil
}

// Locate resolves an identifier to the object holding its primary data
// artifact. Identifiers that name nothing report links.ErrDatasetNotFound.
func (c *Client) Locate(ctx context.Context, id links.ParsedID) (links.ObjectRef, error) {
	if id.Kind != links.KindImage {
		return links.ObjectRef{}, fmt.Errorf("%w: registry serves no %s datasets",
			links.ErrDatasetNotFound, id.Kind)
	}

	requestURL := c.address + fmt.Sprintf(datasetsAPIPathFmt,
		url.PathEscape(id.Label), url.PathEscape(id.UUID))
	code, body, err := c.sendRequest(ctx, requestURL)
	if err != nil {
		return links.ObjectRef{}, err
	}

	if code == http.StatusNotFound {
		return links.ObjectRef{}, fmt.Errorf("%w: dataset %s does not exist",
			links.ErrDatasetNotFound, id.Raw)
	}
	if code != http.StatusOK {
		c.logger.Error("registry responded with non-200 response for dataset lookup",
			zap.Int("code", code), zap.String("id", id.Raw))
		return links.ObjectRef{}, fmt.Errorf(errStatusCodeFmt, errNonSuccessResponse, code)
	}

	var ds dataset
	if err := json.Unmarshal(body, &ds); err != nil {
		return links.ObjectRef{}, fmt.Errorf("Locate: %w: %s", errJSONUnmarshal, err.Error())
	}
	return refFromURI(ds)
}

// refFromURI translates the registry's URI into an object reference.
// http(s) URIs pass through already signed; s3 URIs are split for the
// signer. Anything else cannot produce a retrievable link.
func refFromURI(ds dataset) (links.ObjectRef, error) {
	parsed, err := url.Parse(ds.URI)
	if err != nil {
		return links.ObjectRef{}, fmt.Errorf("%w: %q", errUnsupportedURI, ds.URI)
	}

	ref := links.ObjectRef{
		URI:         ds.URI,
		Size:        ds.Size,
		DatasetType: ds.DatasetType,
	}
	switch parsed.Scheme {
	case "http", "https":
		ref.Signed = true
	case "s3":
		ref.Bucket = parsed.Host
		ref.Key = strings.TrimPrefix(parsed.Path, "/")
	default:
		return links.ObjectRef{}, fmt.Errorf("%w: %q", errUnsupportedURI, ds.URI)
	}
	return ref, nil
}

func (c *Client) sendRequest(ctx context.Context, requestURL string) (int, []byte, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(r)
	if err != nil {
		return 0, nil, fmt.Errorf(errWrappedFmt, errDoRequestFailure, err.Error())
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}
	return resp.StatusCode, body, nil
}
