// Package catalog implements the resource operations of the movie catalog:
// filtered reads through the Resolver, nested serialization through the
// Serializer and validated writes through the Store.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"catalog-service/internal/cache"
	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	"catalog-service/internal/store"
)

// Catalog composes the store, resolver, serializer and read cache.
type Catalog struct {
	store      store.Store
	resolver   *Resolver
	serializer *Serializer
	cache      cache.Cache
	logger     *slog.Logger

	// bumpMu orders version bumps with updates to stale. While stale is set
	// a write went unrecorded in the cache and no cached read may be served.
	bumpMu sync.Mutex
	stale  atomic.Bool
}

// New returns a Catalog over s. A nil cache disables read caching.
func New(s store.Store, c cache.Cache, logger *slog.Logger) *Catalog {
	if c == nil {
		c = cache.Nop{}
	}
	return &Catalog{
		store:      s,
		resolver:   NewResolver(s, logger),
		serializer: NewSerializer(s, s),
		cache:      c,
		logger:     logger,
	}
}

func (c *Catalog) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// invalidate makes every cached read stale. Called after each successful write.
// When the bump fails the cache is bypassed until a later bump succeeds.
func (c *Catalog) invalidate(ctx context.Context) {
	c.bump(ctx)
}

func (c *Catalog) bump(ctx context.Context) bool {
	c.bumpMu.Lock()
	defer c.bumpMu.Unlock()

	version, err := c.cache.Bump(ctx)
	if err != nil {
		c.stale.Store(true)
		c.logger.ErrorContext(ctx, "Failed to bump cache version, bypassing cache", slog.String("error", err.Error()))
		return false
	}
	if c.stale.Swap(false) {
		c.logger.InfoContext(ctx, "Cache version recovered", slog.Uint64("version", version))
	}
	metrics.SetCacheDataVersion(version)
	return true
}

// cacheUsable reports whether cached reads can be trusted, retrying a
// failed bump first.
func (c *Catalog) cacheUsable(ctx context.Context) bool {
	if !c.stale.Load() {
		return true
	}
	return c.bump(ctx)
}

// --- Movies ---

func (c *Catalog) ListMovies(ctx context.Context, selector domain.MovieSelector) ([]MovieNested, error) {
	movies, err := c.resolver.Movies(ctx, selector)
	if err != nil {
		return nil, err
	}
	return c.serializer.Movies(ctx, movies)
}

// ListMoviesFlat returns matching movies with raw reference ids only.
func (c *Catalog) ListMoviesFlat(ctx context.Context, selector domain.MovieSelector) ([]domain.Movie, error) {
	return c.resolver.Movies(ctx, selector)
}

func (c *Catalog) GetMovie(ctx context.Context, id int64) (*MovieNested, error) {
	movie, err := c.store.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	nested, err := c.serializer.Movie(ctx, *movie)
	if err != nil {
		return nil, err
	}
	return &nested, nil
}

func (c *Catalog) MovieExists(ctx context.Context, id int64) (bool, error) {
	_, err := c.store.GetMovie(ctx, id)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (c *Catalog) CreateMovie(ctx context.Context, draft domain.MovieDraft) (int64, error) {
	id, err := c.store.CreateMovie(ctx, draft)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Movie created", slog.Int64("movieID", id))
	return id, nil
}

func (c *Catalog) UpdateMovie(ctx context.Context, id int64, draft domain.MovieDraft) error {
	if err := c.store.UpdateMovie(ctx, id, draft); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Movie updated", slog.Int64("movieID", id))
	return nil
}

func (c *Catalog) DeleteMovie(ctx context.Context, id int64) error {
	if err := c.store.DeleteMovie(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Movie deleted", slog.Int64("movieID", id))
	return nil
}

// --- Directors ---

func (c *Catalog) ListDirectors(ctx context.Context) ([]domain.Director, error) {
	return c.store.ListDirectors(ctx)
}

func (c *Catalog) GetDirector(ctx context.Context, id int64) (*domain.Director, error) {
	return c.store.GetDirector(ctx, id)
}

func (c *Catalog) CreateDirector(ctx context.Context, draft domain.NameDraft) (int64, error) {
	id, err := c.store.CreateDirector(ctx, draft)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Director created", slog.Int64("directorID", id))
	return id, nil
}

func (c *Catalog) UpdateDirector(ctx context.Context, id int64, draft domain.NameDraft) error {
	if err := c.store.UpdateDirector(ctx, id, draft); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Director updated", slog.Int64("directorID", id))
	return nil
}

// DeleteDirector leaves movies that reference the director untouched.
func (c *Catalog) DeleteDirector(ctx context.Context, id int64) error {
	if err := c.store.DeleteDirector(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Director deleted", slog.Int64("directorID", id))
	return nil
}

// --- Genres ---

func (c *Catalog) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	return c.store.ListGenres(ctx)
}

func (c *Catalog) GetGenre(ctx context.Context, id int64) (*domain.Genre, error) {
	return c.store.GetGenre(ctx, id)
}

func (c *Catalog) CreateGenre(ctx context.Context, draft domain.NameDraft) (int64, error) {
	id, err := c.store.CreateGenre(ctx, draft)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Genre created", slog.Int64("genreID", id))
	return id, nil
}

func (c *Catalog) UpdateGenre(ctx context.Context, id int64, draft domain.NameDraft) error {
	if err := c.store.UpdateGenre(ctx, id, draft); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Genre updated", slog.Int64("genreID", id))
	return nil
}

// DeleteGenre leaves movies that reference the genre untouched.
func (c *Catalog) DeleteGenre(ctx context.Context, id int64) error {
	if err := c.store.DeleteGenre(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	c.logger.InfoContext(ctx, "Genre deleted", slog.Int64("genreID", id))
	return nil
}
