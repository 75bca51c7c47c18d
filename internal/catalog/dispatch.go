package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"catalog-service/internal/cache"
	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	"catalog-service/internal/store"
)

type Resource string

const (
	Movies    Resource = "movies"
	Directors Resource = "directors"
	Genres    Resource = "genres"
)

func (r Resource) valid() bool {
	return r == Movies || r == Directors || r == Genres
}

type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var (
	ErrUnknownResource  = errors.New("unknown resource")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Request is a transport-independent resource call. ID is used by get,
// update and delete; Selector by movie lists; Payload by create and update.
type Request struct {
	Resource  Resource
	Operation Operation
	ID        int64
	Selector  domain.MovieSelector
	Payload   []byte
}

// Response carries the status and the encoded JSON body, nil when empty.
// CreatedID is the id assigned by a successful create.
type Response struct {
	Status    int
	Body      []byte
	CreatedID int64
}

// Dispatch runs req and maps its outcome to a status and body.
func (c *Catalog) Dispatch(ctx context.Context, req Request) Response {
	resp, err := c.dispatch(ctx, req)
	if err != nil {
		resp = c.errorResponse(ctx, req, err)
	}
	metrics.RecordDispatch(string(req.Resource), string(req.Operation), resp.Status)
	return resp
}

func (c *Catalog) dispatch(ctx context.Context, req Request) (Response, error) {
	if !req.Resource.valid() {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownResource, req.Resource)
	}

	switch req.Operation {
	case OpList:
		key := []string{string(req.Resource), "list"}
		if req.Resource == Movies {
			key = append(key, "d="+formatID(req.Selector.DirectorID), "g="+formatID(req.Selector.GenreID))
		}
		body, err := c.cachedRead(ctx, req.Resource, key, func() (any, error) { return c.list(ctx, req) })
		return Response{Status: http.StatusOK, Body: body}, err

	case OpGet:
		key := []string{string(req.Resource), strconv.FormatInt(req.ID, 10)}
		body, err := c.cachedRead(ctx, req.Resource, key, func() (any, error) { return c.get(ctx, req) })
		return Response{Status: http.StatusOK, Body: body}, err

	case OpCreate:
		id, err := c.create(ctx, req)
		return Response{Status: http.StatusCreated, CreatedID: id}, err

	case OpUpdate:
		return Response{Status: http.StatusNoContent}, c.update(ctx, req)

	case OpDelete:
		return Response{Status: http.StatusNoContent}, c.remove(ctx, req)
	}
	return Response{}, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation)
}

func (c *Catalog) list(ctx context.Context, req Request) (any, error) {
	switch req.Resource {
	case Movies:
		return c.ListMovies(ctx, req.Selector)
	case Directors:
		return c.ListDirectors(ctx)
	default:
		return c.ListGenres(ctx)
	}
}

func (c *Catalog) get(ctx context.Context, req Request) (any, error) {
	switch req.Resource {
	case Movies:
		return c.GetMovie(ctx, req.ID)
	case Directors:
		return c.GetDirector(ctx, req.ID)
	default:
		return c.GetGenre(ctx, req.ID)
	}
}

func (c *Catalog) create(ctx context.Context, req Request) (int64, error) {
	if req.Resource == Movies {
		draft, err := DecodeMovieDraft(req.Payload)
		if err != nil {
			return 0, err
		}
		return c.CreateMovie(ctx, draft)
	}
	draft, err := DecodeNameDraft(req.Payload)
	if err != nil {
		return 0, err
	}
	if req.Resource == Directors {
		return c.CreateDirector(ctx, draft)
	}
	return c.CreateGenre(ctx, draft)
}

// update reports a missing target before looking at the payload.
func (c *Catalog) update(ctx context.Context, req Request) error {
	if err := c.checkExists(ctx, req); err != nil {
		return err
	}
	if req.Resource == Movies {
		draft, err := DecodeMovieDraft(req.Payload)
		if err != nil {
			return err
		}
		return c.UpdateMovie(ctx, req.ID, draft)
	}
	draft, err := DecodeNameDraft(req.Payload)
	if err != nil {
		return err
	}
	if req.Resource == Directors {
		return c.UpdateDirector(ctx, req.ID, draft)
	}
	return c.UpdateGenre(ctx, req.ID, draft)
}

func (c *Catalog) checkExists(ctx context.Context, req Request) error {
	var err error
	switch req.Resource {
	case Movies:
		_, err = c.store.GetMovie(ctx, req.ID)
	case Directors:
		_, err = c.store.GetDirector(ctx, req.ID)
	default:
		_, err = c.store.GetGenre(ctx, req.ID)
	}
	return err
}

func (c *Catalog) remove(ctx context.Context, req Request) error {
	switch req.Resource {
	case Movies:
		return c.DeleteMovie(ctx, req.ID)
	case Directors:
		return c.DeleteDirector(ctx, req.ID)
	default:
		return c.DeleteGenre(ctx, req.ID)
	}
}

// cachedRead serves an encoded read from the cache or computes and stores it.
// The version is read before computing so a concurrent write can only leave
// behind an entry under a key that is already stale. stale is checked again
// right before Get so a write acknowledged after a failed bump is never
// answered from the cache.
func (c *Catalog) cachedRead(ctx context.Context, resource Resource, parts []string, compute func() (any, error)) ([]byte, error) {
	if !c.cacheUsable(ctx) {
		return c.encodeRead(resource, compute)
	}
	version, verErr := c.cache.Version(ctx)
	if verErr != nil {
		c.logger.WarnContext(ctx, "Cache version unavailable, reading from store", slog.String("error", verErr.Error()))
	}
	key := cache.Key(version, parts...)

	if verErr == nil && !c.stale.Load() {
		body, err := c.cache.Get(ctx, key)
		if err == nil {
			metrics.RecordCacheLookup(string(resource), true)
			return body, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.WarnContext(ctx, "Cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		metrics.RecordCacheLookup(string(resource), false)
	}

	body, err := c.encodeRead(resource, compute)
	if err != nil {
		return nil, err
	}

	if verErr == nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logger.WarnContext(ctx, "Cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return body, nil
}

func (c *Catalog) encodeRead(resource Resource, compute func() (any, error)) ([]byte, error) {
	value, err := compute()
	if err != nil {
		return nil, err
	}
	body, err := Encode(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s response: %w", resource, err)
	}
	return body, nil
}

// errorResponse maps an operation failure to its status. Not-found outcomes
// carry an empty body; every other failure carries {"error": ...}.
func (c *Catalog) errorResponse(ctx context.Context, req Request, err error) Response {
	resp := ErrorResponse(err)
	attrs := []any{
		slog.String("resource", string(req.Resource)),
		slog.String("operation", string(req.Operation)),
		slog.Int("status", resp.Status),
		slog.String("error", err.Error()),
	}
	if resp.Status >= http.StatusInternalServerError {
		c.logger.ErrorContext(ctx, "Resource operation failed", attrs...)
	} else {
		c.logger.InfoContext(ctx, "Resource operation rejected", attrs...)
	}
	return resp
}

// ErrorResponse maps err to a Response without logging it.
func ErrorResponse(err error) Response {
	switch {
	case isNotFound(err):
		return Response{Status: http.StatusNotFound}
	case errors.Is(err, ErrUnknownResource):
		return Response{Status: http.StatusNotFound}
	case errors.Is(err, ErrUnknownOperation):
		return errorBody(http.StatusMethodNotAllowed, err.Error())
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrDanglingReference):
		return errorBody(http.StatusBadRequest, err.Error())
	default:
		return errorBody(http.StatusInternalServerError, "internal server error")
	}
}

func errorBody(status int, message string) Response {
	body, err := Encode(map[string]string{"error": message})
	if err != nil {
		return Response{Status: status}
	}
	return Response{Status: status, Body: body}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// ParseMovieSelector reads director_id and genre_id from a query string.
// An empty value counts as absent; a non-integer value is a validation error.
func ParseMovieSelector(query url.Values) (domain.MovieSelector, error) {
	var selector domain.MovieSelector
	var err error
	if selector.DirectorID, err = parseOptionalID(query, "director_id"); err != nil {
		return domain.MovieSelector{}, err
	}
	if selector.GenreID, err = parseOptionalID(query, "genre_id"); err != nil {
		return domain.MovieSelector{}, err
	}
	return selector, nil
}

func parseOptionalID(query url.Values, name string) (*int64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer, got %q", store.ErrValidation, name, raw)
	}
	return &id, nil
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
