// Package cache stores plan responses keyed by a fingerprint of the request and the
// engine options. Runs are deterministic, so a hit is exactly the response a fresh run
// would produce.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/planner"
)

// ErrMiss is returned by Get when no response is stored under the key.
var ErrMiss = errors.New("cache: miss")

// fingerprintVersion changes whenever engine semantics change so old entries stop matching.
const fingerprintVersion = "v1"

// ResponseCache stores plan responses.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*domain.PlanResponse, error)
	Set(ctx context.Context, key string, resp *domain.PlanResponse) error
}

// Fingerprint hashes the request and every option that influences the response.
func Fingerprint(req domain.PlanRequest, opts planner.Options) (string, error) {
	data, err := json.Marshal(struct {
		Version string             `json:"v"`
		Request domain.PlanRequest `json:"req"`
		Options planner.Options    `json:"opts"`
	}{fingerprintVersion, req, withoutWorkers(opts)})
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// Worker count never changes results.
func withoutWorkers(o planner.Options) planner.Options {
	o.Workers = 0
	return o
}

// Run returns the cached response for req, computing and storing it on a miss.
// Cache failures are not fatal: a failed read computes, a failed write is reported
// through onErr.
func Run(ctx context.Context, c ResponseCache, req domain.PlanRequest, opts planner.Options,
	compute func(context.Context) (*domain.PlanResponse, error), onErr func(error)) (*domain.PlanResponse, bool, error) {
	if c == nil {
		resp, err := compute(ctx)
		return resp, false, err
	}
	key, err := Fingerprint(req, opts)
	if err != nil {
		return nil, false, err
	}
	if resp, err := c.Get(ctx, key); err == nil {
		return resp, true, nil
	} else if !errors.Is(err, ErrMiss) && onErr != nil {
		onErr(err)
	}
	resp, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, resp); err != nil && onErr != nil {
		onErr(err)
	}
	return resp, false, nil
}

// Memory is an in-process ResponseCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*domain.PlanResponse
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*domain.PlanResponse)}
}

func (m *Memory) Get(_ context.Context, key string) (*domain.PlanResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return resp, nil
}

func (m *Memory) Set(_ context.Context, key string, resp *domain.PlanResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = resp
	return nil
}

// Len reports the number of stored responses.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ ResponseCache = (*Memory)(nil)
