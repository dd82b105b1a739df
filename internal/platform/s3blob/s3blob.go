// Package s3blob stores story documents in any S3-compatible bucket.
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/platform"
)

// Store implements platform.BlobStore.
type Store struct {
	client *s3.Client
}

var _ platform.BlobStore = (*Store)(nil)

// New builds a client from static credentials. An endpoint selects a
// non-AWS service such as MinIO.
func New(cfg config.S3Config) (*Store, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("s3 storage requires access_key_id and secret_access_key")
	}

	opts := s3.Options{
		Region:                     cfg.Region,
		Credentials:                credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle:               cfg.PathStyle,
		RetryMaxAttempts:           1,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		opts.BaseEndpoint = aws.String(strings.TrimRight(ep, "/"))
	}

	return &Store{client: s3.New(opts)}, nil
}

// Upload puts obj at its path, overwriting any previous object. Access
// control is the bucket's; the caller only scopes the path.
func (s *Store) Upload(ctx context.Context, _ platform.Caller, obj platform.Object) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(platform.NormalizeObjectKey(obj.Path)),
		Body:          bytes.NewReader(obj.Body),
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}
