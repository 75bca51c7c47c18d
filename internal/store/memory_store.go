// catalog-service/internal/store/memory_store.go
package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"catalog-service/internal/domain"
)

// table keeps rows in insertion order. Ids come from a counter and are never reused.
type table[T any] struct {
	rows   map[int64]T
	order  []int64
	nextID int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) insert(build func(id int64) T) int64 {
	t.nextID++
	id := t.nextID
	t.rows[id] = build(id)
	t.order = append(t.order, id)
	return id
}

func (t *table[T]) get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) replace(id int64, row T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = row
	return true
}

func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	if i := slices.Index(t.order, id); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
	return true
}

func (t *table[T]) scan(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) has(id int64) bool {
	_, ok := t.rows[id]
	return ok
}

// MemoryStore is a map-backed Store. One lock serializes all writes, so a
// reference check and the write it guards can never interleave with a delete.
type MemoryStore struct {
	mu        sync.RWMutex
	movies    *table[domain.Movie]
	directors *table[domain.Director]
	genres    *table[domain.Genre]
	logger    *slog.Logger
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		movies:    newTable[domain.Movie](),
		directors: newTable[domain.Director](),
		genres:    newTable[domain.Genre](),
		logger:    logger,
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
func (m *MemoryStore) Close() error                   { return nil }

// checkReferences must be called with m.mu held.
func (m *MemoryStore) checkReferences(draft domain.MovieDraft) error {
	if draft.GenreID != nil && !m.genres.has(*draft.GenreID) {
		return danglingErr("genre", *draft.GenreID)
	}
	if draft.DirectorID != nil && !m.directors.has(*draft.DirectorID) {
		return danglingErr("director", *draft.DirectorID)
	}
	return nil
}

func (m *MemoryStore) CreateMovie(ctx context.Context, draft domain.MovieDraft) (int64, error) {
	if err := checkCreate(draft); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkReferences(draft); err != nil {
		m.logger.WarnContext(ctx, "Movie create rejected", slog.String("error", err.Error()))
		return 0, err
	}
	id := m.movies.insert(draft.Movie)
	m.logger.DebugContext(ctx, "Movie created in memory store", slog.Int64("movieID", id))
	return id, nil
}

func (m *MemoryStore) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, ok := m.movies.get(id)
	if !ok {
		return nil, notFoundErr("movie", id)
	}
	movie = movie.Clone()
	return &movie, nil
}

func (m *MemoryStore) ListMovies(ctx context.Context, selector domain.MovieSelector) ([]domain.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movies := m.movies.scan(selector.Matches)
	for i := range movies {
		movies[i] = movies[i].Clone()
	}
	return movies, nil
}

func (m *MemoryStore) UpdateMovie(ctx context.Context, id int64, draft domain.MovieDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.movies.has(id) {
		return notFoundErr("movie", id)
	}
	if err := m.checkReferences(draft); err != nil {
		m.logger.WarnContext(ctx, "Movie update rejected", slog.Int64("movieID", id), slog.String("error", err.Error()))
		return err
	}
	m.movies.replace(id, draft.Movie(id))
	return nil
}

func (m *MemoryStore) DeleteMovie(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.movies.remove(id) {
		return notFoundErr("movie", id)
	}
	return nil
}

func (m *MemoryStore) CreateDirector(ctx context.Context, draft domain.NameDraft) (int64, error) {
	if err := checkCreate(draft); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.directors.insert(func(id int64) domain.Director {
		return domain.Director{ID: id, Name: draft.Value()}
	}), nil
}

func (m *MemoryStore) GetDirector(ctx context.Context, id int64) (*domain.Director, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	director, ok := m.directors.get(id)
	if !ok {
		return nil, notFoundErr("director", id)
	}
	return &director, nil
}

func (m *MemoryStore) ListDirectors(ctx context.Context) ([]domain.Director, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.directors.scan(nil), nil
}

func (m *MemoryStore) UpdateDirector(ctx context.Context, id int64, draft domain.NameDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.directors.replace(id, domain.Director{ID: id, Name: draft.Value()}) {
		return notFoundErr("director", id)
	}
	return nil
}

// DeleteDirector leaves movies that reference the director untouched.
func (m *MemoryStore) DeleteDirector(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.directors.remove(id) {
		return notFoundErr("director", id)
	}
	return nil
}

func (m *MemoryStore) CreateGenre(ctx context.Context, draft domain.NameDraft) (int64, error) {
	if err := checkCreate(draft); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.genres.insert(func(id int64) domain.Genre {
		return domain.Genre{ID: id, Name: draft.Value()}
	}), nil
}

func (m *MemoryStore) GetGenre(ctx context.Context, id int64) (*domain.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	genre, ok := m.genres.get(id)
	if !ok {
		return nil, notFoundErr("genre", id)
	}
	return &genre, nil
}

func (m *MemoryStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.genres.scan(nil), nil
}

func (m *MemoryStore) UpdateGenre(ctx context.Context, id int64, draft domain.NameDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.genres.replace(id, domain.Genre{ID: id, Name: draft.Value()}) {
		return notFoundErr("genre", id)
	}
	return nil
}

// DeleteGenre leaves movies that reference the genre untouched.
func (m *MemoryStore) DeleteGenre(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.genres.remove(id) {
		return notFoundErr("genre", id)
	}
	return nil
}
