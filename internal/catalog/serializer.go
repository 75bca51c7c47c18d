package catalog

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"

	"github.com/goccy/go-json"
)

// RefState is the outcome of resolving a movie's reference.
type RefState uint8

const (
	RefUnset RefState = iota
	RefResolved
	RefDangling
)

func (s RefState) String() string {
	switch s {
	case RefResolved:
		return "resolved"
	case RefDangling:
		return "dangling"
	default:
		return "unset"
	}
}

// Reference is a resolved weak reference. Target is set only when State is RefResolved.
type Reference[T any] struct {
	State  RefState
	Target *T
}

func resolveRef[T any](ctx context.Context, id *int64, get func(context.Context, int64) (*T, error)) (Reference[T], error) {
	if id == nil {
		return Reference[T]{State: RefUnset}, nil
	}
	target, err := get(ctx, *id)
	if errors.Is(err, store.ErrNotFound) {
		return Reference[T]{State: RefDangling}, nil
	}
	if err != nil {
		return Reference[T]{}, err
	}
	return Reference[T]{State: RefResolved, Target: target}, nil
}

func lookupRef[T any](id *int64, index map[int64]T) Reference[T] {
	if id == nil {
		return Reference[T]{State: RefUnset}
	}
	target, ok := index[*id]
	if !ok {
		return Reference[T]{State: RefDangling}
	}
	return Reference[T]{State: RefResolved, Target: &target}
}

// MovieNested is the read shape of a movie: the flat fields plus the
// referenced genre and director embedded by value, or null when the
// reference is unset or dangling.
type MovieNested struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	TrailerURL  string           `json:"trailer"`
	Year        int              `json:"year"`
	Rating      float64          `json:"rating"`
	GenreID     *int64           `json:"genre_id"`
	Genre       *domain.Genre    `json:"genre"`
	DirectorID  *int64           `json:"director_id"`
	Director    *domain.Director `json:"director"`
}

// Nest builds the nested shape of m from its resolved references.
func Nest(m domain.Movie, genre Reference[domain.Genre], director Reference[domain.Director]) MovieNested {
	return MovieNested{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		TrailerURL:  m.TrailerURL,
		Year:        m.Year,
		Rating:      m.Rating,
		GenreID:     m.GenreID,
		Genre:       genre.Target,
		DirectorID:  m.DirectorID,
		Director:    director.Target,
	}
}

// Serializer resolves movie references and encodes transport shapes.
type Serializer struct {
	directors store.DirectorStore
	genres    store.GenreStore
}

func NewSerializer(directors store.DirectorStore, genres store.GenreStore) *Serializer {
	return &Serializer{directors: directors, genres: genres}
}

// Movie resolves both references of m with one lookup each.
func (s *Serializer) Movie(ctx context.Context, m domain.Movie) (MovieNested, error) {
	genre, err := resolveRef(ctx, m.GenreID, s.genres.GetGenre)
	if err != nil {
		return MovieNested{}, fmt.Errorf("failed to resolve genre of movie %d: %w", m.ID, err)
	}
	director, err := resolveRef(ctx, m.DirectorID, s.directors.GetDirector)
	if err != nil {
		return MovieNested{}, fmt.Errorf("failed to resolve director of movie %d: %w", m.ID, err)
	}
	return Nest(m, genre, director), nil
}

// Movies nests a list with at most one genre scan and one director scan.
func (s *Serializer) Movies(ctx context.Context, movies []domain.Movie) ([]MovieNested, error) {
	var needGenres, needDirectors bool
	for _, m := range movies {
		needGenres = needGenres || m.GenreID != nil
		needDirectors = needDirectors || m.DirectorID != nil
	}

	genres := map[int64]domain.Genre{}
	if needGenres {
		all, err := s.genres.ListGenres(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load genres: %w", err)
		}
		for _, g := range all {
			genres[g.ID] = g
		}
	}
	directors := map[int64]domain.Director{}
	if needDirectors {
		all, err := s.directors.ListDirectors(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load directors: %w", err)
		}
		for _, d := range all {
			directors[d.ID] = d
		}
	}

	out := make([]MovieNested, 0, len(movies))
	for _, m := range movies {
		out = append(out, Nest(m, lookupRef(m.GenreID, genres), lookupRef(m.DirectorID, directors)))
	}
	return out, nil
}

// Encode renders v as JSON.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeMovieDraft parses a flat movie payload. Unknown keys are ignored;
// malformed JSON is a validation error.
func DecodeMovieDraft(payload []byte) (domain.MovieDraft, error) {
	var draft domain.MovieDraft
	if err := decode(payload, &draft); err != nil {
		return domain.MovieDraft{}, err
	}
	return draft, nil
}

// DecodeNameDraft parses a director or genre payload.
func DecodeNameDraft(payload []byte) (domain.NameDraft, error) {
	var draft domain.NameDraft
	if err := decode(payload, &draft); err != nil {
		return domain.NameDraft{}, err
	}
	return draft, nil
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: invalid request payload: %v", store.ErrValidation, err)
	}
	return nil
}
