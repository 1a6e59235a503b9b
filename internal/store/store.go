// Package store archives plan runs so they can be listed, fetched and exported later.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("store: run not found")

// Run is one archived plan evaluation.
type Run struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name,omitempty"`
	Fingerprint string               `json:"fingerprint"`
	Request     domain.PlanRequest   `json:"inputs"`
	Response    *domain.PlanResponse `json:"payload"`
	Market      calculation.Market   `json:"market"`
	ExportURL   string               `json:"exportUrl,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// RunSummary is the listing view of a Run.
type RunSummary struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name,omitempty"`
	SuccessPct        float64   `json:"successPct"`
	Feasible90        bool      `json:"feasible90"`
	StartStocksNeeded float64   `json:"startStocksNeeded"`
	ExportURL         string    `json:"exportUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Summary returns the listing view.
func (r *Run) Summary() RunSummary {
	s := RunSummary{ID: r.ID, Name: r.Name, ExportURL: r.ExportURL, CreatedAt: r.CreatedAt}
	if r.Response != nil {
		s.SuccessPct = r.Response.SuccessPct
		s.Feasible90 = r.Response.Feasible90
		s.StartStocksNeeded = r.Response.StartStocksNeeded
	}
	return s
}

// ListOpts paginates List. A zero Limit means no limit.
type ListOpts struct {
	Limit  int
	Offset int
}

// RunStore persists runs.
type RunStore interface {
	// Save assigns an id and creation time when they are unset.
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	// List returns runs newest first.
	List(ctx context.Context, opts ListOpts) ([]RunSummary, error)
	SetExportURL(ctx context.Context, id uuid.UUID, url string) error
}

// Prepare fills in the id and timestamp of a run about to be saved.
func Prepare(run *Run, now time.Time) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now.UTC()
	}
}

// Memory is an in-process RunStore.
type Memory struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
	Now  func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[uuid.UUID]Run), Now: time.Now}
}

func (m *Memory) Save(_ context.Context, run *Run) error {
	Prepare(run, m.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

func (m *Memory) List(_ context.Context, opts ListOpts) ([]RunSummary, error) {
	m.mu.RLock()
	out := make([]RunSummary, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run.Summary())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if opts.Offset >= len(out) {
		return []RunSummary{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *Memory) SetExportURL(_ context.Context, id uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return ErrNotFound
	}
	run.ExportURL = url
	m.runs[id] = run
	return nil
}

var _ RunStore = (*Memory)(nil)
