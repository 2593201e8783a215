package chi

import (
	"time"

	"github.com/kailas-cloud/itemdex/internal/domain/item"
	"github.com/kailas-cloud/itemdex/internal/domain/reconcile"
	"github.com/kailas-cloud/itemdex/internal/domain/search/result"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeItemNotFound      ErrorCode = "item_not_found"
	ErrorCodeItemAlreadyExists ErrorCode = "item_already_exists"
	ErrorCodeSearchUnavailable ErrorCode = "search_unavailable"
	ErrorCodeIndexUnavailable  ErrorCode = "index_unavailable"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ItemRequest is the body of POST /items and PUT /items/{id}.
type ItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Year     int    `json:"year"`
}

// PatchItemRequest is the body of PATCH /items/{id}. Absent fields are unchanged.
type PatchItemRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Year     *int    `json:"year,omitempty"`
}

// ItemResponse is a single item.
type ItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemListResponse is a cursor page of items.
type ItemListResponse struct {
	Items      []ItemResponse `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// SearchHit is an item snapshot with its relevance score.
type SearchHit struct {
	ItemResponse
	Score float64 `json:"score"`
}

// SearchResponse is the result of GET /items/search.
type SearchResponse struct {
	Total int         `json:"total"`
	Items []SearchHit `json:"items"`
}

// ListItemsParams are the query parameters of GET /items.
type ListItemsParams struct {
	Cursor *string `json:"cursor,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
}

// SearchItemsParams are the query parameters of GET /items/search.
type SearchItemsParams struct {
	Q        *string `json:"q,omitempty"`
	Category *string `json:"category,omitempty"`
	Year     *int    `json:"year,omitempty"`
	YearMin  *int    `json:"yearMin,omitempty"`
	YearMax  *int    `json:"yearMax,omitempty"`
}

// ReconcileFailure is one item that failed to re-sync.
type ReconcileFailure struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// ReconcileResponse summarizes a reconciliation pass.
type ReconcileResponse struct {
	Total          int                `json:"total"`
	Succeeded      int                `json:"succeeded"`
	Failed         int                `json:"failed"`
	OrphansRemoved int                `json:"orphans_removed"`
	DurationMS     int64              `json:"duration_ms"`
	Failures       []ReconcileFailure `json:"failures,omitempty"`
}

// HealthResponse is the aggregated service health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SearchHealthResponse is the search engine cluster health.
type SearchHealthResponse struct {
	Status              string `json:"status"`
	NodeCount           int    `json:"node_count"`
	ActivePrimaryShards int    `json:"active_primary_shards"`
	ActiveShards        int    `json:"active_shards"`
}

// maxReportedFailures bounds the failures echoed in a ReconcileResponse.
const maxReportedFailures = 100

func itemToResponse(it item.Item) ItemResponse {
	return ItemResponse{
		ID:        it.ID(),
		Name:      it.Name(),
		Category:  it.Category().String(),
		Year:      it.Year(),
		CreatedAt: it.CreatedAt().UTC(),
		UpdatedAt: it.UpdatedAt().UTC(),
	}
}

func searchResultToResponse(r result.Result) SearchResponse {
	hits := make([]SearchHit, len(r.Hits()))
	for i, h := range r.Hits() {
		hits[i] = SearchHit{ItemResponse: itemToResponse(h.Item()), Score: h.Score()}
	}
	return SearchResponse{Total: r.Total(), Items: hits}
}

func reportToResponse(rep reconcile.Report) ReconcileResponse {
	resp := ReconcileResponse{
		Total:          rep.Total,
		Succeeded:      rep.Succeeded,
		Failed:         rep.Failed,
		OrphansRemoved: rep.OrphansRemoved,
		DurationMS:     rep.Duration.Milliseconds(),
	}
	for i, f := range rep.Failures {
		if i == maxReportedFailures {
			break
		}
		resp.Failures = append(resp.Failures, ReconcileFailure{ID: f.ID, Error: f.Err.Error()})
	}
	return resp
}
