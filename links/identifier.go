// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind classifies what an identifier names and therefore which link types
// can apply to it.
type Kind int

const (
	// KindUnknown means the identifier did not match any recognized shape.
	// It is not an error for callers that only need best-effort
	// classification.
	KindUnknown Kind = iota

	// KindImage is a butler:// dataset identifier naming an image.
	KindImage

	// KindCatalogRow is a cat:// identifier naming a single catalog row.
	KindCatalogRow
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindCatalogRow:
		return "catalog-row"
	default:
		return "unknown"
	}
}

// maxIdentifierLength bounds incoming identifiers before any regex work.
const maxIdentifierLength = 256

// Identifier shapes. Labels follow the same rules as storage bucket names.
const (
	labelRegexSource    = "^[0-9a-z][0-9a-z-]{0,62}$"
	uuidRegexSource     = "^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$"
	adqlNameRegexSource = "^[a-zA-Z0-9_]+$"
	rowIDRegexSource    = "^[0-9]+$"
)

var (
	labelRegex    = regexp.MustCompile(labelRegexSource)
	uuidRegex     = regexp.MustCompile(uuidRegexSource)
	adqlNameRegex = regexp.MustCompile(adqlNameRegexSource)
	rowIDRegex    = regexp.MustCompile(rowIDRegexSource)
)

// ParsedID is a structurally validated identifier.
type ParsedID struct {
	// Raw is the identifier exactly as received. It is copied verbatim
	// into every link row produced for it.
	Raw  string
	Kind Kind

	// Label and UUID are set for KindImage.
	Label string
	UUID  string

	// Schema, Table and Row are set for KindCatalogRow.
	Schema string
	Table  string
	Row    string
}

// Classify performs best-effort classification of an identifier. It never
// fails; identifiers that do not parse are KindUnknown. Callers that require
// a definite kind should use Parse instead.
func Classify(id string) Kind {
	parsed, err := Parse(id)
	if err != nil {
		return KindUnknown
	}
	return parsed.Kind
}

// Parse validates the structural shape of an identifier and classifies it.
// It is a pure function of the string and returns ErrInvalidIdentifier
// (wrapped) when the identifier does not parse into any recognized shape.
func Parse(id string) (ParsedID, error) {
	if id == "" || len(id) > maxIdentifierLength {
		return ParsedID{}, fmt.Errorf("%w: length out of bounds", ErrInvalidIdentifier)
	}

	switch {
	case strings.HasPrefix(id, "butler://"):
		return parseImageID(id)
	case strings.HasPrefix(id, "cat://"):
		return parseCatalogRowID(id)
	}
	return ParsedID{}, fmt.Errorf("%w: unrecognized scheme in %q", ErrInvalidIdentifier, id)
}

func parseImageID(id string) (ParsedID, error) {
	rest := strings.TrimPrefix(id, "butler://")
	label, uuid, found := strings.Cut(rest, "/")
	if !found {
		return ParsedID{}, fmt.Errorf("%w: expected butler://<label>/<uuid>", ErrInvalidIdentifier)
	}
	if !labelRegex.MatchString(label) {
		return ParsedID{}, fmt.Errorf("%w: bad repository label %q", ErrInvalidIdentifier, label)
	}
	if !uuidRegex.MatchString(uuid) {
		return ParsedID{}, fmt.Errorf("%w: bad dataset UUID %q", ErrInvalidIdentifier, uuid)
	}
	return ParsedID{
		Raw:   id,
		Kind:  KindImage,
		Label: label,
		UUID:  uuid,
	}, nil
}

func parseCatalogRowID(id string) (ParsedID, error) {
	rest := strings.TrimPrefix(id, "cat://")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return ParsedID{}, fmt.Errorf("%w: expected cat://<schema>/<table>/<row>", ErrInvalidIdentifier)
	}
	schema, table, row := parts[0], parts[1], parts[2]
	if !adqlNameRegex.MatchString(schema) || !adqlNameRegex.MatchString(table) {
		return ParsedID{}, fmt.Errorf("%w: bad table reference %q.%q", ErrInvalidIdentifier, schema, table)
	}
	if !rowIDRegex.MatchString(row) {
		return ParsedID{}, fmt.Errorf("%w: bad row ID %q", ErrInvalidIdentifier, row)
	}
	return ParsedID{
		Raw:    id,
		Kind:   KindCatalogRow,
		Schema: schema,
		Table:  table,
		Row:    row,
	}, nil
}
