package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"catalog-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// forEachBackend runs fn against a fresh memory store and a fresh in-memory SQLite store.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore(testLogger()))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(context.Background(), "sqlite3", ":memory:", testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestStore_MovieRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		genreID, err := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("Drama")})
		require.NoError(t, err)
		directorID, err := s.CreateDirector(ctx, domain.NameDraft{Name: ptr("A. Director")})
		require.NoError(t, err)

		draft := domain.MovieDraft{
			Title:       ptr("X"),
			Description: ptr("about X"),
			TrailerURL:  ptr("https://example.com/x"),
			Year:        ptr(2000),
			Rating:      ptr(7.5),
			GenreID:     ptr(genreID),
			DirectorID:  ptr(directorID),
		}
		id, err := s.CreateMovie(ctx, draft)
		require.NoError(t, err)

		got, err := s.GetMovie(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, draft.Movie(id), *got)
	})
}

func TestStore_IDsAreNeverReused(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first, err := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("a")})
		require.NoError(t, err)
		second, err := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("b")})
		require.NoError(t, err)
		require.NoError(t, s.DeleteGenre(ctx, second))

		third, err := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("c")})
		require.NoError(t, err)
		assert.Greater(t, second, first)
		assert.Greater(t, third, second)
	})
}

func TestStore_CreateRequiresFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.CreateMovie(ctx, domain.MovieDraft{Year: ptr(2000)})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = s.CreateDirector(ctx, domain.NameDraft{})
		assert.ErrorIs(t, err, ErrValidation)

		id, err := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("")})
		require.NoError(t, err, "empty name is allowed")
		g, err := s.GetGenre(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "", g.Name)
	})
}

func TestStore_UpdateReplacesWholeRecord(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X"), Year: ptr(2000), Rating: ptr(8.0)})
		require.NoError(t, err)

		require.NoError(t, s.UpdateMovie(ctx, id, domain.MovieDraft{Title: ptr("Y")}))

		got, err := s.GetMovie(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Y", got.Title)
		assert.Equal(t, 0, got.Year, "omitted year reverts to zero")
		assert.Zero(t, got.Rating)
	})
}

func TestStore_UpdateWithoutTitleClearsIt(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X")})
		require.NoError(t, err)

		require.NoError(t, s.UpdateMovie(ctx, id, domain.MovieDraft{Year: ptr(1999)}))

		got, err := s.GetMovie(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "", got.Title)
		assert.Equal(t, 1999, got.Year)
	})
}

func TestStore_MissingIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.GetMovie(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetDirector(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetGenre(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.UpdateMovie(ctx, 42, domain.MovieDraft{Title: ptr("X")}), ErrNotFound)
		assert.ErrorIs(t, s.UpdateDirector(ctx, 42, domain.NameDraft{Name: ptr("x")}), ErrNotFound)
		assert.ErrorIs(t, s.UpdateGenre(ctx, 42, domain.NameDraft{Name: ptr("x")}), ErrNotFound)

		assert.ErrorIs(t, s.DeleteMovie(ctx, 42), ErrNotFound)
		assert.ErrorIs(t, s.DeleteDirector(ctx, 42), ErrNotFound)
		assert.ErrorIs(t, s.DeleteGenre(ctx, 42), ErrNotFound)
	})
}

func TestStore_RejectsDanglingReferences(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X"), GenreID: ptr(int64(99))})
		assert.ErrorIs(t, err, ErrDanglingReference)
		_, err = s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X"), DirectorID: ptr(int64(99))})
		assert.ErrorIs(t, err, ErrDanglingReference)

		id, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X")})
		require.NoError(t, err)
		err = s.UpdateMovie(ctx, id, domain.MovieDraft{Title: ptr("X"), GenreID: ptr(int64(99))})
		assert.ErrorIs(t, err, ErrDanglingReference)

		movies, err := s.ListMovies(ctx, domain.MovieSelector{})
		require.NoError(t, err)
		assert.Len(t, movies, 1, "rejected create must not persist")
	})
}

func TestStore_UpdateMissingMovieWinsOverDanglingReference(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		err := s.UpdateMovie(context.Background(), 5, domain.MovieDraft{Title: ptr("X"), GenreID: ptr(int64(99))})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_DeleteGenreLeavesMovieReference(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		genreID, err := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("Drama")})
		require.NoError(t, err)
		movieID, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X"), GenreID: ptr(genreID)})
		require.NoError(t, err)

		require.NoError(t, s.DeleteGenre(ctx, genreID))

		m, err := s.GetMovie(ctx, movieID)
		require.NoError(t, err)
		require.NotNil(t, m.GenreID)
		assert.Equal(t, genreID, *m.GenreID)
		assert.NoError(t, s.DeleteMovie(ctx, movieID))
	})
}

func TestStore_ListMoviesFilters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		d1, _ := s.CreateDirector(ctx, domain.NameDraft{Name: ptr("d1")})
		d2, _ := s.CreateDirector(ctx, domain.NameDraft{Name: ptr("d2")})
		g1, _ := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("g1")})
		g2, _ := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("g2")})

		seed := []domain.MovieDraft{
			{Title: ptr("a"), DirectorID: ptr(d1), GenreID: ptr(g1)},
			{Title: ptr("b"), DirectorID: ptr(d1), GenreID: ptr(g2)},
			{Title: ptr("c"), DirectorID: ptr(d2), GenreID: ptr(g1)},
			{Title: ptr("d")},
		}
		for _, d := range seed {
			_, err := s.CreateMovie(ctx, d)
			require.NoError(t, err)
		}

		titles := func(sel domain.MovieSelector) []string {
			movies, err := s.ListMovies(ctx, sel)
			require.NoError(t, err)
			out := []string{}
			for _, m := range movies {
				out = append(out, m.Title)
			}
			return out
		}

		assert.Equal(t, []string{"a", "b", "c", "d"}, titles(domain.MovieSelector{}))
		assert.Equal(t, []string{"a", "b"}, titles(domain.MovieSelector{DirectorID: ptr(d1)}))
		assert.Equal(t, []string{"a", "c"}, titles(domain.MovieSelector{GenreID: ptr(g1)}))
		assert.Equal(t, []string{"a"}, titles(domain.MovieSelector{DirectorID: ptr(d1), GenreID: ptr(g1)}))
		assert.Empty(t, titles(domain.MovieSelector{DirectorID: ptr(int64(999))}))
	})
}

func TestStore_ListInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, name := range []string{"z", "a", "m"} {
			_, err := s.CreateDirector(ctx, domain.NameDraft{Name: ptr(name)})
			require.NoError(t, err)
		}
		directors, err := s.ListDirectors(ctx)
		require.NoError(t, err)
		require.Len(t, directors, 3)
		assert.Equal(t, "z", directors[0].Name)
		assert.Equal(t, "m", directors[2].Name)

		genres, err := s.ListGenres(ctx)
		require.NoError(t, err)
		assert.NotNil(t, genres)
		assert.Empty(t, genres)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(testLogger())
	ctx := context.Background()
	g, _ := s.CreateGenre(ctx, domain.NameDraft{Name: ptr("g")})
	id, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("X"), GenreID: ptr(g)})
	require.NoError(t, err)

	m, err := s.GetMovie(ctx, id)
	require.NoError(t, err)
	*m.GenreID = 500
	m.Title = "changed"

	again, err := s.GetMovie(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, g, *again.GenreID)
	assert.Equal(t, "X", again.Title)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", testLogger())
	assert.Error(t, err)
}

func TestStore_YearBeyond32Bits(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.CreateMovie(ctx, domain.MovieDraft{Title: ptr("far future"), Year: ptr(1 << 40)})
		require.NoError(t, err)

		got, err := s.GetMovie(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1<<40, got.Year)
	})
}
