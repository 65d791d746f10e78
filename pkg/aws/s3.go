package aws

import (
	"context"
	"fmt"
	"io"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client creates a new S3 client from AWS config.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

// ReceiptArchive stores payment receipts in a bucket and returns their s3:// URL.
type ReceiptArchive struct {
	client *s3.Client
	bucket string
}

func NewReceiptArchive(cfg sdkaws.Config, bucket string) *ReceiptArchive {
	return &ReceiptArchive{client: NewS3Client(cfg), bucket: bucket}
}

func (a *ReceiptArchive) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        sdkaws.String(a.bucket),
		Key:           sdkaws.String(key),
		Body:          body,
		ContentLength: sdkaws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}
	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put receipt %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
