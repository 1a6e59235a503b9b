package s3blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://minio.local:9000", normaliseEndpoint("minio.local:9000"))
	assert.Equal(t, "http://localhost:9000", normaliseEndpoint("http://localhost:9000"))
	assert.Equal(t, "https://s3.example.com", normaliseEndpoint("https://s3.example.com"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	assert.EqualError(t, err, "s3blob: bucket name is required")

	_, err = New(context.Background(), ClientConfig{Bucket: "plans"})
	assert.EqualError(t, err, "s3blob: region is required")
}

func TestNewExporter(t *testing.T) {
	c, err := New(context.Background(), ClientConfig{
		Endpoint:       "localhost:9000",
		Region:         "us-east-1",
		Bucket:         "plans",
		AccessKey:      "minio",
		SecretKey:      "minio123",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "plans", c.Bucket())
	assert.NotNil(t, c.S3())

	e := NewExporter(c)
	assert.Equal(t, "plans", e.bucket)
	assert.Equal(t, "s3://plans/exports/2026/03/01/x.json", objectURL("plans", "exports/2026/03/01/x.json"))
}
