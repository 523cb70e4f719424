// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package links

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrofab/datalinker/model"
)

func TestDecodeLinksRequest(t *testing.T) {
	testCases := []struct {
		Name                   string
		URL                    string
		ExpectedDecodedRequest interface{}
		ExpectedErr            error
	}{
		{
			Name:        "Missing id",
			URL:         "http://localhost/api/datalink/links",
			ExpectedErr: &BadRequestErr{Message: idMissingMsg},
		},
		{
			Name:                   "Lowercase id",
			URL:                    "http://localhost/api/datalink/links?id=" + testImageID,
			ExpectedDecodedRequest: &linksRequest{id: testImageID},
		},
		{
			Name: "Uppercase parameter names",
			// DataLink requires query parameters to match case-insensitively.
			URL:                    "http://localhost/api/datalink/links?ID=" + testImageID + "&RESPONSEFORMAT=votable",
			ExpectedDecodedRequest: &linksRequest{id: testImageID},
		},
		{
			Name:                   "Full mime response format",
			URL:                    "http://localhost/api/datalink/links?id=" + testImageID + "&responseformat=application/x-votable%2Bxml",
			ExpectedDecodedRequest: &linksRequest{id: testImageID},
		},
		{
			Name:        "Unsupported response format",
			URL:         "http://localhost/api/datalink/links?id=" + testImageID + "&responseformat=text/csv",
			ExpectedErr: &BadRequestErr{Message: badResponseFormatMsg},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			r := httptest.NewRequest(http.MethodGet, testCase.URL, nil)
			decodedRequest, err := decodeLinksRequest(context.Background(), r)

			assert.Equal(testCase.ExpectedDecodedRequest, decodedRequest)
			assert.Equal(testCase.ExpectedErr, err)
		})
	}
}

func TestEncodeLinksResponse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		Name           string
		Response       *Response
		ExpectedMaxAge string
	}{
		{
			Name: "Expiry window drives max-age",
			Response: &Response{
				ID: testImageID,
				Links: []model.Link{
					{ID: testImageID, AccessURL: "https://signed.example.org/deep.fits", Semantics: SemanticsThis},
				},
				Expiry:    now.Add(300 * time.Second),
				HasExpiry: true,
			},
			ExpectedMaxAge: "max-age=300",
		},
		{
			Name: "Static policy without expiring URLs",
			Response: &Response{
				ID: testImageID,
				Links: []model.Link{
					{ID: testImageID, AccessURL: "https://signed.example.org/deep.fits", Semantics: SemanticsThis},
				},
			},
			ExpectedMaxAge: "max-age=3600",
		},
		{
			Name: "Expiry in the past floors at zero",
			Response: &Response{
				ID: testImageID,
				Links: []model.Link{
					{ID: testImageID, AccessURL: "https://signed.example.org/deep.fits", Semantics: SemanticsThis},
				},
				Expiry:    now.Add(-time.Minute),
				HasExpiry: true,
			},
			ExpectedMaxAge: "max-age=0",
		},
	}

	config := &transportConfig{
		defaultLifetime: time.Hour,
		now:             func() time.Time { return now },
	}
	encode := encodeLinksResponse(config)

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			recorder := httptest.NewRecorder()
			err := encode(context.Background(), recorder, testCase.Response)

			require.NoError(t, err)
			assert.Equal(VOTableContentType, recorder.Header().Get("Content-Type"))
			assert.Equal(testCase.ExpectedMaxAge, recorder.Header().Get("Cache-Control"))
			// Cacheability is expressed through Cache-Control alone.
			assert.Empty(recorder.Header().Get("Expires"))
			assert.Contains(recorder.Body.String(), "<VOTABLE")
		})
	}
}

func TestEncodeLinksResponseCasting(t *testing.T) {
	encode := encodeLinksResponse(&transportConfig{defaultLifetime: time.Hour, now: time.Now})
	err := encode(context.Background(), httptest.NewRecorder(), "not a response")
	assert.Equal(t, ErrCasting, err)
}

func TestEncodeError(t *testing.T) {
	testCases := []struct {
		Name         string
		Err          error
		ExpectedCode int
	}{
		{
			Name:         "Bad request",
			Err:          &BadRequestErr{Message: "identifier is malformed"},
			ExpectedCode: http.StatusBadRequest,
		},
		{
			Name:         "Opaque failure",
			Err:          ErrCasting,
			ExpectedCode: http.StatusInternalServerError,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			recorder := httptest.NewRecorder()
			encodeError(context.Background(), testCase.Err, recorder)

			assert.Equal(testCase.ExpectedCode, recorder.Code)
			assert.Equal(testCase.Err.Error(), recorder.Header().Get(ErrorHeaderKey))
		})
	}
}
