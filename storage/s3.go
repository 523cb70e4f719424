// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

// Package storage signs object-store references into time-limited URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/astrofab/datalinker/links"
)

var errNotObjectRef = errors.New("object reference carries no bucket and key to sign")

// Config configures the S3 presigning backend.
type Config struct {
	// Endpoint overrides the S3 endpoint, e.g. for non-AWS object stores.
	// (Optional)
	Endpoint string

	Region string `validate:"required"`

	// AccessKey and SecretKey are static credentials.
	// (Optional) If unset, the ambient AWS credential chain is used.
	AccessKey string
	SecretKey string
}

// Presigner produces presigned GET URLs for S3 object references. It
// implements links.Signer.
type Presigner struct {
	presign *s3.PresignClient
	now     func() time.Time
}

// New builds a Presigner from the given config.
func New(config Config) (*Presigner, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Presigner{
		presign: s3.NewPresignClient(client),
		now:     time.Now,
	}, nil
}

// Sign presigns a GET of the referenced object. The returned expiry is when
// the URL stops being valid.
func (p *Presigner) Sign(ctx context.Context, ref links.ObjectRef, ttl time.Duration) (string, time.Time, error) {
	if ref.Bucket == "" || ref.Key == "" {
		return "", time.Time{}, fmt.Errorf("%w: %q", errNotObjectRef, ref.URI)
	}

	expiry := p.now().Add(ttl)
	request, err := p.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(ref.Bucket),
			Key:    aws.String(ref.Key),
		},
		func(options *s3.PresignOptions) {
			options.Expires = ttl
		},
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %q: %w", ref.URI, err)
	}
	return request.URL, expiry, nil
}
