// catalog-service/internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/internal/domain"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrValidation        = errors.New("validation failed")
	ErrDanglingReference = errors.New("reference does not resolve")
)

// MovieStore holds movie records and checks that their references resolve
// at write time.
type MovieStore interface {
	CreateMovie(ctx context.Context, draft domain.MovieDraft) (int64, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	ListMovies(ctx context.Context, selector domain.MovieSelector) ([]domain.Movie, error)
	UpdateMovie(ctx context.Context, id int64, draft domain.MovieDraft) error
	DeleteMovie(ctx context.Context, id int64) error
}

type DirectorStore interface {
	CreateDirector(ctx context.Context, draft domain.NameDraft) (int64, error)
	GetDirector(ctx context.Context, id int64) (*domain.Director, error)
	ListDirectors(ctx context.Context) ([]domain.Director, error)
	UpdateDirector(ctx context.Context, id int64, draft domain.NameDraft) error
	DeleteDirector(ctx context.Context, id int64) error
}

type GenreStore interface {
	CreateGenre(ctx context.Context, draft domain.NameDraft) (int64, error)
	GetGenre(ctx context.Context, id int64) (*domain.Genre, error)
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	UpdateGenre(ctx context.Context, id int64, draft domain.NameDraft) error
	DeleteGenre(ctx context.Context, id int64) error
}

// Store is the full entity store. Deleting a director or genre never
// touches the movies that reference it.
type Store interface {
	MovieStore
	DirectorStore
	GenreStore
	Ping(ctx context.Context) error
	Close() error
}

// checkCreate rejects drafts that miss a required field.
func checkCreate(draft any) error {
	if err := domain.CheckRequired(draft); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func danglingErr(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrDanglingReference, kind, id)
}

func notFoundErr(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}
