package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/bufferplan/internal/blob"
	"github.com/rgehrsitz/bufferplan/internal/domain"
	"github.com/rgehrsitz/bufferplan/internal/output"
	"github.com/rgehrsitz/bufferplan/internal/store"
)

const maxRequestBody = 1 << 16

// writeJSON marshals v as JSON, falling back to a plain 500 when marshaling fails.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// parseListOpts reads limit (default 50, max 500) and offset from the query string.
func parseListOpts(r *http.Request) store.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return store.ListOpts{Limit: limit, Offset: offset}
}

// GET /api/health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"cache":     s.deps.Cache != nil,
		"archive":   s.deps.Runs != nil,
		"export":    s.deps.Exporter != nil,
	})
}

// POST /api/simulate?name=...
// The body is a plan request; the response body is the plan response. The run id and
// cache outcome travel in the X-Run-ID and X-Cache headers.
func (s *Server) simulateHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.simulate(r.Context(), r.URL.Query().Get("name"), req, nil)
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid plan", Problems: ve.Problems})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
		default:
			s.logger.Error("simulate failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "simulation failed")
		}
		return
	}

	if res.RunID != "" {
		w.Header().Set("X-Run-ID", res.RunID)
	}
	if res.Cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, res.Response)
}

// GET /api/runs?limit=&offset=
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}
	runs, err := s.deps.Runs.List(r.Context(), parseListOpts(r))
	if err != nil {
		s.logger.Error("list runs failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return nil, false
	}
	run, err := s.deps.Runs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		s.logger.Error("get run failed", slog.String("id", id.String()), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return run, true
}

// GET /api/runs/{id}
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type exportResponse struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

// POST /api/runs/{id}/export?format=json
// Renders the archived run with an output formatter and uploads it.
func (s *Server) exportRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage not configured")
		return
	}
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	f := output.GetFormatterByName(format)
	if f == nil {
		writeError(w, http.StatusBadRequest, "unknown format "+strconv.Quote(format))
		return
	}

	report := output.NewReport(run.Request, run.Response, run.Market, run.CreatedAt)
	report.Name = run.Name
	data, err := f.Format(report)
	if err != nil {
		s.logger.Error("render export failed", slog.String("id", run.ID.String()), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to render export")
		return
	}

	ext := output.Extension(f)
	key := blob.ExportKey(s.cfg.ExportPrefix, run.ID, run.CreatedAt, ext)
	url, err := s.deps.Exporter.Export(r.Context(), key, data, blob.ContentType(ext))
	if err != nil {
		s.logger.Error("upload export failed", slog.String("key", key), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to upload export")
		return
	}
	if err := s.deps.Runs.SetExportURL(r.Context(), run.ID, url); err != nil {
		s.logger.Warn("record export url failed", slog.String("id", run.ID.String()), slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusOK, exportResponse{ID: run.ID.String(), Format: f.Name(), Key: key, URL: url})
}
