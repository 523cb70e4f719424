// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

package butler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrofab/datalinker/links"
)

const (
	testLabel = "dp02"
	testUUID  = "58f56d2e-cfd8-44e7-a343-20ebdc1f4127"
)

func testImageID(t *testing.T) links.ParsedID {
	parsed, err := links.Parse(fmt.Sprintf("butler://%s/%s", testLabel, testUUID))
	require.NoError(t, err)
	return parsed
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	client, err := New(Config{}, nil)
	assert.Nil(client)
	assert.Equal(ErrAddressEmpty, err)

	client, err = New(Config{Address: "http://registry.example.org/"}, nil)
	assert.NoError(err)
	assert.NotNil(client)
}

func TestLocate(t *testing.T) {
	testCases := []struct {
		Name          string
		ResponseCode  int
		ResponseBody  string
		ExpectedRef   links.ObjectRef
		ExpectedErr   error
		ErrorContains string
	}{
		{
			Name:         "S3 URI",
			ResponseCode: http.StatusOK,
			ResponseBody: `{"uri": "s3://datasets/calexp/deep.fits", "size": 2048, "dataset_type": "calexp"}`,
			ExpectedRef: links.ObjectRef{
				URI:         "s3://datasets/calexp/deep.fits",
				Bucket:      "datasets",
				Key:         "calexp/deep.fits",
				Size:        sizePtr(2048),
				DatasetType: "calexp",
			},
		},
		{
			Name:         "Presigned HTTPS URI",
			ResponseCode: http.StatusOK,
			ResponseBody: `{"uri": "https://butler.example.org/signed/deep.fits", "dataset_type": "raw"}`,
			ExpectedRef: links.ObjectRef{
				URI:         "https://butler.example.org/signed/deep.fits",
				Signed:      true,
				DatasetType: "raw",
			},
		},
		{
			Name:         "Dataset does not exist",
			ResponseCode: http.StatusNotFound,
			ResponseBody: `{"detail": "no such dataset"}`,
			ExpectedErr:  links.ErrDatasetNotFound,
		},
		{
			Name:          "Registry failure",
			ResponseCode:  http.StatusInternalServerError,
			ResponseBody:  `oops`,
			ExpectedErr:   errNonSuccessResponse,
			ErrorContains: "500",
		},
		{
			Name:          "Unsupported URI scheme",
			ResponseCode:  http.StatusOK,
			ResponseBody:  `{"uri": "gs://datasets/deep.fits"}`,
			ExpectedErr:   errUnsupportedURI,
			ErrorContains: "gs://",
		},
		{
			Name:         "Malformed payload",
			ResponseCode: http.StatusOK,
			ResponseBody: `{`,
			ExpectedErr:  errJSONUnmarshal,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert := assert.New(t)
			server := httptest.NewServer(http.HandlerFunc(
				func(rw http.ResponseWriter, r *http.Request) {
					assert.Equal(fmt.Sprintf("/api/v1/repos/%s/datasets/%s", testLabel, testUUID), r.URL.Path)
					assert.Equal("Bearer secret", r.Header.Get("Authorization"))
					rw.WriteHeader(testCase.ResponseCode)
					rw.Write([]byte(testCase.ResponseBody))
				}))
			defer server.Close()

			client, err := New(Config{Address: server.URL, Token: "secret"}, nil)
			require.NoError(t, err)

			ref, err := client.Locate(context.Background(), testImageID(t))
			if testCase.ExpectedErr != nil {
				assert.ErrorIs(err, testCase.ExpectedErr)
				if testCase.ErrorContains != "" {
					assert.Contains(err.Error(), testCase.ErrorContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(testCase.ExpectedRef, ref)
		})
	}
}

func TestLocateRejectsNonImageKinds(t *testing.T) {
	assert := assert.New(t)
	client, err := New(Config{Address: "http://registry.example.org"}, nil)
	require.NoError(t, err)

	catalogRow, err := links.Parse("cat://dp02_dc2_catalogs/Object/42")
	require.NoError(t, err)

	_, err = client.Locate(context.Background(), catalogRow)
	assert.ErrorIs(err, links.ErrDatasetNotFound)
}

func sizePtr(n int64) *int64 {
	return &n
}
