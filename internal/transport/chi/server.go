package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/domain"
	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/item/patch"
	"github.com/kailas-cloud/itemdex/internal/domain/search/filter"
	healthuc "github.com/kailas-cloud/itemdex/internal/usecase/health"
	"github.com/kailas-cloud/itemdex/internal/usecase/itemsync"
	searchuc "github.com/kailas-cloud/itemdex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// IndexEnsurer creates the search index on demand.
type IndexEnsurer interface {
	EnsureIndex(ctx context.Context) error
}

// Server serves the item API.
type Server struct {
	items         *itemsync.Service
	search        *searchuc.Service
	health        *healthuc.Service
	index         IndexEnsurer
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	items *itemsync.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	index IndexEnsurer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		items:  items,
		search: search,
		health: health,
		index:  index,
		logger: logger,
		now:    time.Now,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeItemNotFound),
		sentinelHandler(domain.ErrDuplicate, http.StatusConflict, ErrorCodeItemAlreadyExists),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, ErrorCodeSearchUnavailable),
		sentinelHandler(domain.ErrIndex, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
	}
	return s
}

// CreateItem handles POST /items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	f, err := item.NewFields(req.Name, req.Category, req.Year, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	it, err := s.items.Create(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/items/"+it.ID())
	writeJSON(w, http.StatusCreated, itemToResponse(it))
}

// ListItems handles GET /items.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request, params ListItemsParams) {
	cursor := ""
	if params.Cursor != nil {
		cursor = *params.Cursor
	}
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	items, next, err := s.items.List(r.Context(), cursor, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ItemListResponse{Items: make([]ItemResponse, len(items))}
	for i, it := range items {
		resp.Items[i] = itemToResponse(it)
	}
	if next != "" {
		resp.NextCursor = &next
		resp.HasMore = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request, id string) {
	it, err := s.items.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(it))
}

// ReplaceItem handles PUT /items/{id}. Every field is required.
func (s *Server) ReplaceItem(w http.ResponseWriter, r *http.Request, id string) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	f, err := item.NewFields(req.Name, req.Category, req.Year, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	it, err := s.items.Update(r.Context(), id, patch.Full(f))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(it))
}

// PatchItem handles PATCH /items/{id}.
func (s *Server) PatchItem(w http.ResponseWriter, r *http.Request, id string) {
	var req PatchItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := patch.New(req.Name, req.Category, req.Year, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	it, err := s.items.Update(r.Context(), id, p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(it))
}

// DeleteItem handles DELETE /items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.items.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchItems handles GET /items/search.
func (s *Server) SearchItems(w http.ResponseWriter, r *http.Request, params SearchItemsParams) {
	filters, err := filtersFromParams(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	term := ""
	if params.Q != nil {
		term = *params.Q
	}

	res, err := s.search.Search(r.Context(), term, filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResultToResponse(res))
}

// Reconcile handles POST /admin/reconcile. Partial failure is still 200;
// the body carries the failed count.
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	rep := s.items.Reconcile(r.Context())
	writeJSON(w, http.StatusOK, reportToResponse(rep))
}

// EnsureIndex handles POST /admin/index.
func (s *Server) EnsureIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.EnsureIndex(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// SearchHealth handles GET /health/search.
func (s *Server) SearchHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.search.Health(r.Context())
	httpStatus := http.StatusOK
	if err != nil {
		s.logger.Warn("search health check failed", zap.Error(err))
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, SearchHealthResponse{
		Status:              h.Status,
		NodeCount:           h.NodeCount,
		ActivePrimaryShards: h.ActivePrimaryShards,
		ActiveShards:        h.ActiveShards,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func filtersFromParams(params SearchItemsParams) (filter.Filters, error) {
	var yr *filter.YearRange
	if params.YearMin != nil || params.YearMax != nil {
		r, err := filter.NewYearRange(params.YearMin, params.YearMax)
		if err != nil {
			return filter.Filters{}, fmt.Errorf("year range: %w", err)
		}
		yr = &r
	}
	f, err := filter.New(params.Category, params.Year, yr)
	if err != nil {
		return filter.Filters{}, fmt.Errorf("filters: %w", err)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrDuplicate,
		domain.ErrSearchUnavailable,
		domain.ErrIndex,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
