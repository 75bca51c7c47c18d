package catalog

import (
	"context"
	"log/slog"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
)

// Resolver answers filtered movie queries.
type Resolver struct {
	movies store.MovieStore
	logger *slog.Logger
}

func NewResolver(movies store.MovieStore, logger *slog.Logger) *Resolver {
	return &Resolver{movies: movies, logger: logger}
}

// Movies returns every movie matching all predicates of selector, in store
// order. A selector that matches nothing yields an empty, non-nil slice.
func (r *Resolver) Movies(ctx context.Context, selector domain.MovieSelector) ([]domain.Movie, error) {
	movies, err := r.movies.ListMovies(ctx, selector)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	r.logger.DebugContext(ctx, "Movies resolved",
		slog.Any("director_id", selector.DirectorID),
		slog.Any("genre_id", selector.GenreID),
		slog.Int("count", len(movies)))
	return movies, nil
}
