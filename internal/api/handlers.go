package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"catalog-service/internal/catalog"
	"catalog-service/internal/store"

	"github.com/gorilla/mux"
)

const maxPayloadBytes = 1 << 20

// CatalogHandler maps HTTP requests onto catalog resource operations.
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewCatalogHandler(c *catalog.Catalog, l *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: l}
}

// --- Helpers ---

func (h *CatalogHandler) respond(w http.ResponseWriter, r *http.Request, resource catalog.Resource, resp catalog.Response) {
	if resp.Status == http.StatusCreated && resp.CreatedID != 0 {
		w.Header().Set("Location", fmt.Sprintf("/%s/%d", resource, resp.CreatedID))
	}
	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
	}
}

func (h *CatalogHandler) respondError(w http.ResponseWriter, r *http.Request, resource catalog.Resource, err error) {
	h.logger.InfoContext(r.Context(), "HTTP request rejected", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	h.respond(w, r, resource, catalog.ErrorResponse(err))
}

// pathID reads the {id} route variable. The route only matches digits, so a
// failure here means the value overflows int64, which no entity can have.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", store.ErrNotFound, mux.Vars(r)["id"])
	}
	return id, nil
}

func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request payload exceeds %d bytes", store.ErrValidation, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: failed to read request payload: %v", store.ErrValidation, err)
	}
	return payload, nil
}

// --- Handlers ---

func (h *CatalogHandler) List(resource catalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := catalog.Request{Resource: resource, Operation: catalog.OpList}
		if resource == catalog.Movies {
			selector, err := catalog.ParseMovieSelector(r.URL.Query())
			if err != nil {
				h.respondError(w, r, resource, err)
				return
			}
			req.Selector = selector
		}
		h.respond(w, r, resource, h.catalog.Dispatch(r.Context(), req))
	}
}

func (h *CatalogHandler) Get(resource catalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.respondError(w, r, resource, err)
			return
		}
		resp := h.catalog.Dispatch(r.Context(), catalog.Request{Resource: resource, Operation: catalog.OpGet, ID: id})
		h.respond(w, r, resource, resp)
	}
}

func (h *CatalogHandler) Create(resource catalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := readPayload(w, r)
		if err != nil {
			h.respondError(w, r, resource, err)
			return
		}
		resp := h.catalog.Dispatch(r.Context(), catalog.Request{Resource: resource, Operation: catalog.OpCreate, Payload: payload})
		h.respond(w, r, resource, resp)
	}
}

func (h *CatalogHandler) Update(resource catalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.respondError(w, r, resource, err)
			return
		}
		payload, err := readPayload(w, r)
		if err != nil {
			h.respondError(w, r, resource, err)
			return
		}
		resp := h.catalog.Dispatch(r.Context(), catalog.Request{Resource: resource, Operation: catalog.OpUpdate, ID: id, Payload: payload})
		h.respond(w, r, resource, resp)
	}
}

func (h *CatalogHandler) Delete(resource catalog.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.respondError(w, r, resource, err)
			return
		}
		resp := h.catalog.Dispatch(r.Context(), catalog.Request{Resource: resource, Operation: catalog.OpDelete, ID: id})
		h.respond(w, r, resource, resp)
	}
}

// Health reports whether the store is reachable.
func (h *CatalogHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, `{"status":"ok"}`
	if err := h.catalog.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "Health check failed", slog.String("error", err.Error()))
		status, body = http.StatusServiceUnavailable, `{"status":"unavailable"}`
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
