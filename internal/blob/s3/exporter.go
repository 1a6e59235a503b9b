package s3blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rgehrsitz/bufferplan/internal/blob"
)

// Exporter implements blob.Exporter with the S3 upload manager, which switches to
// multipart uploads for large documents.
type Exporter struct {
	uploader *manager.Uploader
	bucket   string
}

// NewExporter creates an Exporter writing to the client's bucket.
func NewExporter(c *Client) *Exporter {
	return &Exporter{
		uploader: manager.NewUploader(c.S3()),
		bucket:   c.Bucket(),
	}
}

// Export uploads data under key and returns its s3:// URL.
func (e *Exporter) Export(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: upload %s: %w", key, err)
	}
	return objectURL(e.bucket, key), nil
}

func objectURL(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// Compile-time interface check.
var _ blob.Exporter = (*Exporter)(nil)
