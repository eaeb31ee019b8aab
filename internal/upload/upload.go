// Package upload stores attachment bytes and hands back the temporary id an
// attachment field carries.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/alfredjeanlab/lots/internal/idgen"
)

// ErrEmpty is returned when Upload is given no data.
var ErrEmpty = errors.New("upload: empty attachment")

// Uploader stores an attachment and returns its temporary id.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// S3Uploader writes attachments to an S3-compatible bucket under prefix,
// one object per temp id.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Uploader creates an S3 uploader. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Uploader(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Uploader(s3.NewFromConfig(cfg, s3opts...), bucket, prefix), nil
}

func newS3Uploader(client *s3.Client, bucket, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, prefix: prefix, logger: slog.Default()}
}

// DetectContentType sniffs the MIME type of an attachment from its leading
// bytes, falling back to application/octet-stream.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ObjectKey returns the bucket key an attachment id is stored under.
func (u *S3Uploader) ObjectKey(tempID string) string {
	return path.Join(u.prefix, tempID)
}

// Upload stores data and returns its temp id.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if contentType == "" {
		contentType = DetectContentType(data)
	}
	id, err := idgen.TempID()
	if err != nil {
		return "", err
	}
	key := u.ObjectKey(id)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	u.logger.Debug("attachment uploaded", "bucket", u.bucket, "key", key, "bytes", len(data))
	return id, nil
}
