// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrofab/datalinker/model"
)

func TestRenderVOTable(t *testing.T) {
	assert := assert.New(t)
	response := &Response{
		ID: testImageID,
		Links: []model.Link{
			{
				ID:            testImageID,
				AccessURL:     "https://signed.example.org/deep.fits",
				Description:   "Full-size data artifact for this identifier",
				Semantics:     SemanticsThis,
				ContentType:   "application/fits",
				ContentLength: testSize(2048),
			},
			{
				ID:          testImageID,
				ServiceDef:  "cutout-sync",
				Description: "Cutout of this image through the SODA synchronous service",
				Semantics:   SemanticsCutout,
				ContentType: "application/fits",
			},
		},
		Descriptors: []model.ServiceDescriptor{
			{
				ID:         "cutout-sync",
				AccessURL:  "https://soda.example.org/api/cutout/sync",
				StandardID: SODASyncStandardID,
				Params: []model.ServiceParam{
					{Name: "ID", Datatype: "char", ArraySize: "*", UCD: "meta.id;meta.main", Value: testImageID},
					{Name: "POLYGON", Datatype: "double", ArraySize: "*", Unit: "deg", UCD: "pos.outline;obs.field"},
					{Name: "CIRCLE", Datatype: "double", ArraySize: "3", Unit: "deg", UCD: "phys.angSize;pos"},
				},
			},
		},
	}

	body, err := RenderVOTable(response)
	require.NoError(t, err)

	document := string(body)
	assert.True(strings.HasPrefix(document, "<?xml"))
	assert.Contains(document, `xmlns="http://www.ivoa.net/xml/VOTable/v1.3"`)
	assert.Contains(document, `type="results"`)
	assert.Contains(document, `type="meta"`)
	assert.Contains(document, `utype="adhoc:service"`)
	assert.Contains(document, SODASyncStandardID)

	parsed, err := parseVOTable(body)
	require.NoError(t, err)
	assert.Equal(response.ID, parsed.ID)
	assert.Equal(response.Links, parsed.Links)
	assert.Equal(response.Descriptors, parsed.Descriptors)
}

func TestRenderVOTableFieldOrder(t *testing.T) {
	assert := assert.New(t)
	body, err := RenderVOTable(&Response{
		Links: []model.Link{
			{ID: testImageID, ErrorMessage: "NotFoundFault: gone", Semantics: SemanticsThis},
		},
	})
	require.NoError(t, err)

	document := string(body)
	order := []string{`name="ID"`, `name="access_url"`, `name="service_def"`,
		`name="error_message"`, `name="description"`, `name="semantics"`,
		`name="content_type"`, `name="content_length"`}
	last := -1
	for _, field := range order {
		index := strings.Index(document, field)
		assert.Greater(index, last, "field %s out of order", field)
		last = index
	}
}

func TestRenderVOTableInvariant(t *testing.T) {
	testCases := []struct {
		Name string
		Link model.Link
	}{
		{
			Name: "Nothing populated",
			Link: model.Link{ID: testImageID, Semantics: SemanticsThis},
		},
		{
			Name: "URL and error",
			Link: model.Link{
				ID:           testImageID,
				AccessURL:    "https://signed.example.org/deep.fits",
				ErrorMessage: "FatalFault: both",
				Semantics:    SemanticsThis,
			},
		},
		{
			Name: "URL and service",
			Link: model.Link{
				ID:         testImageID,
				AccessURL:  "https://signed.example.org/deep.fits",
				ServiceDef: "cutout-sync",
				Semantics:  SemanticsCutout,
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			_, err := RenderVOTable(&Response{Links: []model.Link{testCase.Link}})
			assert.ErrorIs(t, err, ErrMalformedLink)
		})
	}
}
