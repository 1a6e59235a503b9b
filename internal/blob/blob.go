// Package blob uploads export documents to object storage.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Exporter uploads a document and returns a URL for it.
type Exporter interface {
	Export(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ExportKey lays exports out by day: {prefix}/2026/03/01/{id}.{ext}
func ExportKey(prefix string, id uuid.UUID, ts time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return path.Join(strings.Trim(prefix, "/"), ts.UTC().Format("2006/01/02"), fmt.Sprintf("%s.%s", id, ext))
}

// ContentType maps an export extension to its media type.
func ContentType(ext string) string {
	switch strings.TrimPrefix(ext, ".") {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	case "html":
		return "text/html; charset=utf-8"
	case "pdf":
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Object is a document held by Memory.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory is an in-process Exporter.
type Memory struct {
	mu      sync.Mutex
	Objects map[string]Object
}

// NewMemory creates an empty in-process exporter.
func NewMemory() *Memory {
	return &Memory{Objects: make(map[string]Object)}
}

func (m *Memory) Export(_ context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return "mem://" + key, nil
}

var _ Exporter = (*Memory)(nil)
