// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// Link is one row of a DataLink response table. Exactly one of AccessURL,
// ServiceDef, and ErrorMessage must be non-empty; the renderer rejects rows
// that violate this.
type Link struct {
	// ID is the identifier this row was produced for, copied verbatim.
	ID string `json:"id"`

	// AccessURL is a fully resolved URL for direct retrieval.
	AccessURL string `json:"access_url,omitempty"`

	// ServiceDef references a ServiceDescriptor resource by ID.
	ServiceDef string `json:"service_def,omitempty"`

	// ErrorMessage explains why this particular link could not be produced.
	ErrorMessage string `json:"error_message,omitempty"`

	Description string `json:"description,omitempty"`

	// Semantics is a term from the DataLink core vocabulary, e.g. #this.
	Semantics string `json:"semantics"`

	ContentType string `json:"content_type,omitempty"`

	// ContentLength is the size in bytes, nil when the backend did not
	// report one.
	ContentLength *int64 `json:"content_length,omitempty"`
}

// ServiceParam describes one declared input parameter of a service
// descriptor.
type ServiceParam struct {
	Name      string `json:"name"`
	Datatype  string `json:"datatype"`
	ArraySize string `json:"arraysize,omitempty"`
	Unit      string `json:"unit,omitempty"`
	UCD       string `json:"ucd,omitempty"`
	Value     string `json:"value"`
}

// ServiceDescriptor is a reusable resource block describing a callable
// service, referenced from link rows through their ServiceDef field.
type ServiceDescriptor struct {
	// ID names this descriptor within one response document.
	ID string `json:"id"`

	// AccessURL is the resolved endpoint of the service.
	AccessURL string `json:"access_url"`

	// StandardID is the URI of the IVOA standard the service implements.
	StandardID string `json:"standard_id"`

	Params []ServiceParam `json:"params"`
}

// Collection is the aggregated record for one HiPS collection.
type Collection struct {
	// Key identifies the collection within its dataset, e.g.
	// "images/color_gri".
	Key string `json:"key"`

	// URL is the canonical service URL of the collection.
	URL string `json:"url"`

	// Properties holds the parsed key/value pairs of the collection's
	// properties payload.
	Properties map[string]string `json:"properties"`

	// Text is the raw properties payload as served upstream, with the
	// canonical URL injected. HiPS list output is the concatenation of
	// these payloads.
	Text string `json:"-"`

	// Refreshed is when this record was last fetched successfully.
	Refreshed time.Time `json:"refreshed"`
}
