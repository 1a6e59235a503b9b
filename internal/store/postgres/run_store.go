package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rgehrsitz/bufferplan/internal/store"
)

// RunStore implements store.RunStore using PostgreSQL. Request, response and market
// are stored as JSONB; the headline metrics are duplicated into columns for listing.
type RunStore struct {
	pool *pgxpool.Pool
	Now  func() time.Time
}

// NewRunStore creates a RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool, Now: time.Now}
}

// Save inserts the run. Runs are immutable apart from their export URL.
func (s *RunStore) Save(ctx context.Context, run *store.Run) error {
	if run.Response == nil {
		return fmt.Errorf("postgres: save run: response is required")
	}
	store.Prepare(run, s.Now())

	reqJSON, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("postgres: marshal request %s: %w", run.ID, err)
	}
	respJSON, err := json.Marshal(run.Response)
	if err != nil {
		return fmt.Errorf("postgres: marshal response %s: %w", run.ID, err)
	}
	marketJSON, err := json.Marshal(run.Market)
	if err != nil {
		return fmt.Errorf("postgres: marshal market %s: %w", run.ID, err)
	}

	const query = `
		INSERT INTO plan_runs (id, name, fingerprint, request, response, market,
			success_pct, feasible90, start_stocks_needed, export_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.pool.Exec(ctx, query,
		run.ID, run.Name, run.Fingerprint, reqJSON, respJSON, marketJSON,
		run.Response.SuccessPct, run.Response.Feasible90, run.Response.StartStocksNeeded,
		run.ExportURL, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save run %s: %w", run.ID, err)
	}
	return nil
}

// Get retrieves a single run by id.
func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (*store.Run, error) {
	const query = `
		SELECT id, name, fingerprint, request, response, market, export_url, created_at
		FROM plan_runs WHERE id = $1`

	var run store.Run
	var reqJSON, respJSON, marketJSON []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Name, &run.Fingerprint, &reqJSON, &respJSON, &marketJSON,
		&run.ExportURL, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get run %s: %w", id, err)
	}

	if err := json.Unmarshal(reqJSON, &run.Request); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal request %s: %w", id, err)
	}
	if err := json.Unmarshal(respJSON, &run.Response); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal response %s: %w", id, err)
	}
	if err := json.Unmarshal(marketJSON, &run.Market); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal market %s: %w", id, err)
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return &run, nil
}

// List returns run summaries newest first.
func (s *RunStore) List(ctx context.Context, opts store.ListOpts) ([]store.RunSummary, error) {
	query, args := listQuery(opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	runs := []store.RunSummary{}
	for rows.Next() {
		var r store.RunSummary
		if err := rows.Scan(&r.ID, &r.Name, &r.SuccessPct, &r.Feasible90, &r.StartStocksNeeded,
			&r.ExportURL, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list runs rows: %w", err)
	}
	return runs, nil
}

func listQuery(opts store.ListOpts) (string, []any) {
	query := `SELECT id, name, success_pct, feasible90, start_stocks_needed, export_url, created_at
		FROM plan_runs ORDER BY created_at DESC, id`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

// SetExportURL records where the run's export document was uploaded.
func (s *RunStore) SetExportURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE plan_runs SET export_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("postgres: set export url %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Compile-time interface check.
var _ store.RunStore = (*RunStore)(nil)
