package api

import (
	"log/slog"
	"net/http"
	"time"

	"catalog-service/internal/catalog"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RateLimitConfig caps requests per client IP. Zero Requests disables it.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"gte=0"`
	Window   time.Duration `koanf:"window"`
}

// NewRouter returns the HTTP handler for the catalog API. Collection routes
// answer with and without a trailing slash; ids must be digits.
func NewRouter(handler *CatalogHandler, logger *slog.Logger, rateLimit RateLimitConfig) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Use(instrument)

	router.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	for _, resource := range []catalog.Resource{catalog.Movies, catalog.Directors, catalog.Genres} {
		sub := router.PathPrefix("/" + string(resource)).Subrouter()
		for _, collection := range []string{"", "/"} {
			sub.HandleFunc(collection, handler.List(resource)).Methods(http.MethodGet)
			sub.HandleFunc(collection, handler.Create(resource)).Methods(http.MethodPost)
		}
		sub.HandleFunc("/{id:[0-9]+}", handler.Get(resource)).Methods(http.MethodGet)
		sub.HandleFunc("/{id:[0-9]+}", handler.Update(resource)).Methods(http.MethodPut)
		sub.HandleFunc("/{id:[0-9]+}", handler.Delete(resource)).Methods(http.MethodDelete)
	}

	// Outer middleware also wraps requests that match no route.
	var h http.Handler = router
	h = logRequests(logger)(h)
	h = rateLimiter(rateLimit)(h)
	h = requestID(h)
	h = chimiddleware.Recoverer(h)
	h = chimiddleware.RealIP(h)
	return h
}
