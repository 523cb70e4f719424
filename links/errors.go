// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidIdentifier is returned when an identifier does not parse
	// into any recognized shape. It aborts the whole request; every other
	// backend failure is downgraded to an error row.
	ErrInvalidIdentifier = errors.New("identifier is malformed")

	// ErrMalformedLink reports a link row that violates the exactly-one-of
	// access_url/service_def/error_message invariant. It indicates a bug in
	// the assembler, never bad client input.
	ErrMalformedLink = errors.New("link row must set exactly one of access_url, service_def, error_message")

	// ErrDatasetNotFound is the sentinel storage resolvers report when no
	// dataset exists for an identifier.
	ErrDatasetNotFound = errors.New("no dataset found for identifier")

	// ErrNoSigner is reported by signers that have no signing backend
	// configured.
	ErrNoSigner = errors.New("no URL signer configured")

	// ErrServiceUnavailable is reported by service locators when no
	// endpoint is known for the requested service.
	ErrServiceUnavailable = errors.New("service endpoint unavailable")
)

// BadRequestErr is a client error carrying an HTTP 400 status for the go-kit
// error encoder.
type BadRequestErr struct {
	Message string
}

func (bre BadRequestErr) Error() string {
	return bre.Message
}

func (bre BadRequestErr) StatusCode() int {
	return http.StatusBadRequest
}
