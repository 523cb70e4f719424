// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

// Package links resolves dataset identifiers into IVOA DataLink responses:
// a table of typed links plus service descriptors for callable services
// such as SODA cutouts.
package links

import (
	"context"
	"time"

	"github.com/astrofab/datalinker/model"
)

// DataLink core vocabulary terms used by this service.
const (
	SemanticsThis   = "#this"
	SemanticsCutout = "#cutout"
)

// SODASyncStandardID identifies the synchronous SODA cutout protocol.
const SODASyncStandardID = "ivo://ivoa.net/std/SODA#sync-1.0"

// ObjectRef is a byte-addressable object a storage resolver located for an
// identifier.
type ObjectRef struct {
	// URI is the object's storage URI, e.g. s3://bucket/key, or an
	// already-signed http(s) URL when the registry signs on our behalf.
	URI string

	// Bucket and Key are parsed from object-store URIs and are what the
	// signer operates on.
	Bucket string
	Key    string

	// Signed is true when URI needs no further signing.
	Signed bool

	// Size is the object size in bytes, nil if not reported.
	Size *int64

	// DatasetType is the registry's dataset type name, e.g. "calexp" or
	// "raw". Raw images do not support cutouts.
	DatasetType string
}

// StorageResolver locates the primary data artifact for an identifier.
// Implementations report ErrDatasetNotFound (wrapped) when the identifier
// parses but names nothing.
type StorageResolver interface {
	Locate(ctx context.Context, id ParsedID) (ObjectRef, error)
}

// Signer produces a time-limited signed URL for an object reference along
// with the URL's expiry. A zero expiry means the URL does not expire.
type Signer interface {
	Sign(ctx context.Context, ref ObjectRef, ttl time.Duration) (url string, expiry time.Time, err error)
}

// CutoutLocator discovers the SODA sync endpoint serving cutouts for a
// repository label. Implementations report ErrServiceUnavailable (wrapped)
// when no endpoint is known.
type CutoutLocator interface {
	URLForData(ctx context.Context, serviceType, label string) (string, error)
}

// Capabilities describes which optional link types are enabled in this
// deployment. The zero value disables all of them.
type Capabilities struct {
	// Cutout enables SODA cutout descriptors for image identifiers.
	Cutout bool

	// Lifetime is how long links in a response should be considered
	// valid. It is the TTL requested from the signer and the static
	// cache lifetime when no entry in a response carries an expiring URL.
	Lifetime time.Duration
}

// Response is one assembled DataLink response prior to rendering.
type Response struct {
	// ID is the identifier the response was assembled for.
	ID string

	// Links holds one row per attempted link type, primary first.
	Links []model.Link

	// Descriptors holds the service descriptors minted for rows that
	// reference services rather than direct URLs.
	Descriptors []model.ServiceDescriptor

	// Expiry is the minimum validity timestamp across all signed URLs in
	// the response; HasExpiry is false when no entry carries one.
	Expiry    time.Time
	HasExpiry bool
}
