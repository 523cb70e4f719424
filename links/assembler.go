// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/astrofab/datalinker/model"
)

// DataLink error message prefixes from the standard's fault vocabulary.
const (
	notFoundFaultPrefix = "NotFoundFault"
	fatalFaultPrefix    = "FatalFault"
)

const imageContentType = "application/fits"

const cutoutDescriptorID = "cutout-sync"

// Assembler produces the ordered set of link rows and service descriptors
// for an identifier. It is safe for concurrent use; all mutable state is
// per-call.
type Assembler struct {
	storage StorageResolver
	signer  Signer
	cutout  CutoutLocator
	caps    Capabilities
	logger  *zap.Logger
}

// NewAssembler builds an Assembler over the given collaborators. Either
// signer or cutout may be nil when the deployment has no signing backend or
// the cutout capability is disabled.
func NewAssembler(storage StorageResolver, signer Signer, cutout CutoutLocator, caps Capabilities, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		storage: storage,
		signer:  signer,
		cutout:  cutout,
		caps:    caps,
		logger:  logger,
	}
}

// expiryTracker wraps the signer collaborator for the duration of one
// assembly call and records the minimum expiry across all signed URLs, which
// becomes the response's cache window.
type expiryTracker struct {
	signer Signer
	min    time.Time
	set    bool
}

func (t *expiryTracker) sign(ctx context.Context, ref ObjectRef, ttl time.Duration) (string, error) {
	if t.signer == nil {
		return "", ErrNoSigner
	}
	url, expiry, err := t.signer.Sign(ctx, ref, ttl)
	if err != nil {
		return "", err
	}
	t.observe(expiry)
	return url, nil
}

func (t *expiryTracker) observe(expiry time.Time) {
	if expiry.IsZero() {
		return
	}
	if !t.set || expiry.Before(t.min) {
		t.min = expiry
		t.set = true
	}
}

func (t *expiryTracker) window() (time.Time, bool) {
	return t.min, t.set
}

// capability is one entry of the fixed, ordered table of optional link
// types. Rows are emitted in table order after the primary row, so response
// ordering is deterministic.
type capability struct {
	semantics string
	enabled   func(caps Capabilities) bool
	eligible  func(id ParsedID, ref ObjectRef) bool
	build     func(ctx context.Context, a *Assembler, id ParsedID) (model.Link, *model.ServiceDescriptor)
}

var capabilityTable = []capability{
	{
		semantics: SemanticsCutout,
		enabled:   func(caps Capabilities) bool { return caps.Cutout },
		eligible: func(id ParsedID, ref ObjectRef) bool {
			// Cutouts only apply to images, and not to raw ones.
			return id.Kind == KindImage && ref.DatasetType != "raw"
		},
		build: buildCutoutEntry,
	},
}

// Assemble builds the DataLink response for an already-parsed identifier.
// Backend failures are contained to the row they affect; the only hard
// failure mode is a cancelled context.
func (a *Assembler) Assemble(ctx context.Context, id ParsedID) (*Response, error) {
	logger := a.logger.With(zap.String("id", id.Raw))
	tracker := &expiryTracker{signer: a.signer}

	primary, ref := a.buildPrimaryEntry(ctx, id, tracker, logger)
	response := &Response{
		ID:    id.Raw,
		Links: []model.Link{primary},
	}

	for _, c := range capabilityTable {
		if !c.enabled(a.caps) || !c.eligible(id, ref) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		link, descriptor := c.build(ctx, a, id)
		response.Links = append(response.Links, link)
		if descriptor != nil {
			response.Descriptors = append(response.Descriptors, *descriptor)
		}
	}

	response.Expiry, response.HasExpiry = tracker.window()
	return response, nil
}

// buildPrimaryEntry emits the #this row for the primary data artifact. A
// failure to locate or sign the artifact becomes this row's error message
// rather than a request failure, so other link types are still attempted.
func (a *Assembler) buildPrimaryEntry(ctx context.Context, id ParsedID, tracker *expiryTracker, logger *zap.Logger) (model.Link, ObjectRef) {
	link := model.Link{
		ID:          id.Raw,
		Semantics:   SemanticsThis,
		Description: "Full-size data artifact for this identifier",
		ContentType: imageContentType,
	}

	ref, err := a.storage.Locate(ctx, id)
	if err != nil {
		logger.Warn("failed to locate primary artifact", zap.Error(err))
		link.ContentType = ""
		link.ErrorMessage = faultMessage(err)
		return link, ObjectRef{}
	}
	link.ContentLength = ref.Size

	if ref.Signed {
		// The registry already returned a signed URL. Its lifetime is not
		// reported, so the static cache policy applies.
		link.AccessURL = ref.URI
		return link, ref
	}

	url, err := tracker.sign(ctx, ref, a.caps.Lifetime)
	if err != nil {
		logger.Warn("failed to sign URL for primary artifact",
			zap.String("uri", ref.URI), zap.Error(err))
		link.ContentType = ""
		link.ContentLength = nil
		link.ErrorMessage = faultMessage(err)
		return link, ref
	}
	link.AccessURL = url
	return link, ref
}

func buildCutoutEntry(ctx context.Context, a *Assembler, id ParsedID) (model.Link, *model.ServiceDescriptor) {
	link := model.Link{
		ID:          id.Raw,
		Semantics:   SemanticsCutout,
		Description: "Cutout of this image through the SODA synchronous service",
		ContentType: imageContentType,
	}

	if a.cutout == nil {
		link.ContentType = ""
		link.ErrorMessage = faultMessage(ErrServiceUnavailable)
		return link, nil
	}
	url, err := a.cutout.URLForData(ctx, "cutout", id.Label)
	if err != nil {
		a.logger.Warn("failed to locate cutout service",
			zap.String("id", id.Raw), zap.String("label", id.Label), zap.Error(err))
		link.ContentType = ""
		link.ErrorMessage = faultMessage(err)
		return link, nil
	}

	link.ServiceDef = cutoutDescriptorID
	descriptor := &model.ServiceDescriptor{
		ID:         cutoutDescriptorID,
		AccessURL:  url,
		StandardID: SODASyncStandardID,
		Params: []model.ServiceParam{
			{Name: "ID", Datatype: "char", ArraySize: "*", UCD: "meta.id;meta.main", Value: id.Raw},
			{Name: "POLYGON", Datatype: "double", ArraySize: "*", Unit: "deg", UCD: "pos.outline;obs.field"},
			{Name: "CIRCLE", Datatype: "double", ArraySize: "3", Unit: "deg", UCD: "phys.angSize;pos"},
		},
	}
	return link, descriptor
}

// faultMessage renders an error into the DataLink error_message vocabulary.
func faultMessage(err error) string {
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		return fmt.Sprintf("%s: %s", notFoundFaultPrefix, err.Error())
	default:
		return fmt.Sprintf("%s: %s", fatalFaultPrefix, err.Error())
	}
}
