// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

// Package discovery locates sibling platform services, such as the SODA
// cutout service, for a repository label.
package discovery

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
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errDoRequestFailure   = errors.New("http client failed while sending request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
	errJSONUnmarshal      = errors.New("failed unmarshaling JSON response payload")
)

const (
	servicesAPIPathFmt = "/api/v1/services/%s/%s"
	errWrappedFmt      = "%w: %s"
)

// Config configures service discovery. At least one of Address and
// Endpoints must be set for any service to be discoverable.
type Config struct {
	// Address is the discovery service URL.
	// (Optional) If unset, only the pinned Endpoints are consulted.
	Address string

	// Endpoints pins service URLs per "<serviceType>/<label>" pair,
	// tried before the discovery service. A "<serviceType>" key without a
	// label acts as the deployment-wide default.
	Endpoints map[string]string

	// Versions restricts lookups to a protocol version per service type,
	// e.g. "soda-sync-1.0" for cutout.
	// (Optional)
	Versions map[string]string

	// HTTPClient refers to the client that will be used to send requests.
	// (Optional) Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client implements links.CutoutLocator over a discovery service with
// config-pinned fallbacks.
type Client struct {
	client    *http.Client
	address   string
	endpoints map[string]string
	versions  map[string]string
	logger    *zap.Logger
}

// New creates a discovery client.
func New(config Config, logger *zap.Logger) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client:    config.HTTPClient,
		address:   strings.TrimSuffix(config.Address, "/"),
		endpoints: config.Endpoints,
		versions:  config.Versions,
		logger:    logger,
	}
}

// URLForData returns the endpoint of the named service for a repository
// label. Pinned endpoints win over the discovery service; when neither
// knows the service, links.ErrServiceUnavailable is reported.
func (c *Client) URLForData(ctx context.Context, serviceType, label string) (string, error) {
	if pinned, ok := c.endpoints[serviceType+"/"+label]; ok {
		return pinned, nil
	}
	if pinned, ok := c.endpoints[serviceType]; ok {
		return pinned, nil
	}
	if c.address == "" {
		return "", fmt.Errorf("%w: no endpoint configured for %s/%s",
			links.ErrServiceUnavailable, serviceType, label)
	}

	requestURL := c.address + fmt.Sprintf(servicesAPIPathFmt,
		url.PathEscape(serviceType), url.PathEscape(label))
	if version := c.versions[serviceType]; version != "" {
		requestURL += "?version=" + url.QueryEscape(version)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	resp, err := c.client.Do(r)
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, errDoRequestFailure, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s/%s is not registered",
			links.ErrServiceUnavailable, serviceType, label)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("discovery responded with non-200 response",
			zap.Int("code", resp.StatusCode),
			zap.String("serviceType", serviceType), zap.String("label", label))
		return "", fmt.Errorf("%w: discovery returned status %d",
			links.ErrServiceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}
	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("URLForData: %w: %s", errJSONUnmarshal, err.Error())
	}
	if payload.URL == "" {
		return "", fmt.Errorf("%w: discovery returned an empty URL", links.ErrServiceUnavailable)
	}
	return payload.URL, nil
}
