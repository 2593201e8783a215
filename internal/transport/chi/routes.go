package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// InvalidParamFormatError is a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RouterOptions configures Handler.
type RouterOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts every API route on opts.BaseRouter (a new router when nil).
func Handler(s *Server, opts RouterOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	b := binder{onError: opts.ErrorHandlerFunc}

	r.Route("/items", func(r chi.Router) {
		r.Post("/", s.CreateItem)
		r.Get("/", b.listItems(s.ListItems))
		// Registered before /{id} so "search" is never taken as an id.
		r.Get("/search", b.searchItems(s.SearchItems))
		r.Get("/{id}", b.withID(s.GetItem))
		r.Put("/{id}", b.withID(s.ReplaceItem))
		r.Patch("/{id}", b.withID(s.PatchItem))
		r.Delete("/{id}", b.withID(s.DeleteItem))
	})
	r.Post("/admin/reconcile", s.Reconcile)
	r.Post("/admin/index", s.EnsureIndex)
	r.Get("/health", s.HealthCheck)
	r.Get("/health/search", s.SearchHealth)
	r.Get("/metrics", s.Metrics)

	return r
}

type binder struct {
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (b binder) withID(
	h func(w http.ResponseWriter, r *http.Request, id string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			b.onError(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
			return
		}
		h(w, r, id)
	}
}

func (b binder) listItems(
	h func(w http.ResponseWriter, r *http.Request, params ListItemsParams),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params ListItemsParams
		q := r.URL.Query()

		if err := runtime.BindQueryParameter("form", true, false, "cursor", q, &params.Cursor); err != nil {
			b.onError(w, r, &InvalidParamFormatError{ParamName: "cursor", Err: err})
			return
		}
		if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
			b.onError(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
			return
		}
		h(w, r, params)
	}
}

func (b binder) searchItems(
	h func(w http.ResponseWriter, r *http.Request, params SearchItemsParams),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params SearchItemsParams
		q := r.URL.Query()

		bindings := []struct {
			name string
			dest any
		}{
			{"q", &params.Q},
			{"category", &params.Category},
			{"year", &params.Year},
			{"yearMin", &params.YearMin},
			{"yearMax", &params.YearMax},
		}
		for _, p := range bindings {
			if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
				b.onError(w, r, &InvalidParamFormatError{ParamName: p.name, Err: err})
				return
			}
		}
		h(w, r, params)
	}
}
