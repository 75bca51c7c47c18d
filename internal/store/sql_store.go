// catalog-service/internal/store/sql_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"catalog-service/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const movieColumns = `id, title, description, trailer, year, rating, genre_id, director_id`

// SQLStore implements Store over SQLite ("sqlite3") or PostgreSQL ("postgres").
// Queries are written with ? placeholders and rebound for the driver.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the database, applies the schema and returns a ready store.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	logger.Info("Connecting to catalog database", slog.String("driver", driver))

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		logger.Error("Failed to connect to catalog database", slog.String("driver", driver), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// A single connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
	}

	s, err := NewSQLStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Catalog database ready", slog.String("driver", driver))
	return s, nil
}

// NewSQLStore wraps an existing connection. The schema is not touched.
func NewSQLStore(db *sqlx.DB, logger *slog.Logger) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// EnsureSchema creates missing tables. Existing tables are left as they are.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemas[s.db.DriverName()] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logDBError(ctx, "Failed to apply catalog schema", err)
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	s.logger.Info("Closing catalog database connection...")
	return s.db.Close()
}

// lockClause makes reference checks hold a row lock until commit on
// PostgreSQL. SQLite runs on one connection, so it needs none.
func (s *SQLStore) lockClause(mode string) string {
	if s.db.DriverName() == "postgres" {
		return " FOR " + mode
	}
	return ""
}

func (s *SQLStore) logDBError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		attrs = append(attrs, slog.String("pg_error_code", string(pqErr.Code)))
	}
	s.logger.ErrorContext(ctx, msg, attrs...)
}

// inTx runs fn in a transaction and commits when it returns nil.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// exists reports whether table has a row with the given id, locking it when mode is set.
func (s *SQLStore) exists(ctx context.Context, tx *sqlx.Tx, table string, id int64, mode string) (bool, error) {
	query := "SELECT id FROM " + table + " WHERE id = ?"
	if mode != "" {
		query += s.lockClause(mode)
	}
	var found int64
	err := tx.GetContext(ctx, &found, tx.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %d: %w", table, id, err)
	}
	return true, nil
}

func (s *SQLStore) checkReferences(ctx context.Context, tx *sqlx.Tx, draft domain.MovieDraft) error {
	if draft.GenreID != nil {
		ok, err := s.exists(ctx, tx, "genres", *draft.GenreID, "SHARE")
		if err != nil {
			return err
		}
		if !ok {
			return danglingErr("genre", *draft.GenreID)
		}
	}
	if draft.DirectorID != nil {
		ok, err := s.exists(ctx, tx, "directors", *draft.DirectorID, "SHARE")
		if err != nil {
			return err
		}
		if !ok {
			return danglingErr("director", *draft.DirectorID)
		}
	}
	return nil
}

func (s *SQLStore) CreateMovie(ctx context.Context, draft domain.MovieDraft) (int64, error) {
	if err := checkCreate(draft); err != nil {
		return 0, err
	}
	m := draft.Movie(0)
	query := `INSERT INTO movies (title, description, trailer, year, rating, genre_id, director_id)
              VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`

	var id int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.checkReferences(ctx, tx, draft); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, tx.Rebind(query),
			m.Title, m.Description, m.TrailerURL, m.Year, m.Rating, m.GenreID, m.DirectorID,
		).Scan(&id)
	})
	if err != nil {
		if errors.Is(err, ErrDanglingReference) {
			s.logger.WarnContext(ctx, "Movie create rejected", slog.String("error", err.Error()))
			return 0, err
		}
		s.logDBError(ctx, "Failed to create movie in DB", err)
		return 0, fmt.Errorf("failed to create movie: %w", err)
	}
	s.logger.DebugContext(ctx, "Movie created in DB", slog.Int64("movieID", id))
	return id, nil
}

func (s *SQLStore) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	var movie domain.Movie

	err := s.db.GetContext(ctx, &movie, s.db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr("movie", id)
		}
		s.logDBError(ctx, "Failed to get movie by ID from DB", err, slog.Int64("movieID", id))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}
	return &movie, nil
}

func (s *SQLStore) ListMovies(ctx context.Context, selector domain.MovieSelector) ([]domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies`

	var conditions []string
	var args []interface{}
	if selector.DirectorID != nil {
		conditions = append(conditions, "director_id = ?")
		args = append(args, *selector.DirectorID)
	}
	if selector.GenreID != nil {
		conditions = append(conditions, "genre_id = ?")
		args = append(args, *selector.GenreID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	movies := []domain.Movie{}
	s.logger.DebugContext(ctx, "Executing list movies query", slog.String("query", query), slog.Any("args", args))
	if err := s.db.SelectContext(ctx, &movies, s.db.Rebind(query), args...); err != nil {
		s.logDBError(ctx, "Failed to list movies from DB", err)
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

func (s *SQLStore) UpdateMovie(ctx context.Context, id int64, draft domain.MovieDraft) error {
	m := draft.Movie(id)
	query := `UPDATE movies SET title = ?, description = ?, trailer = ?, year = ?, rating = ?, genre_id = ?, director_id = ?
              WHERE id = ?`

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.exists(ctx, tx, "movies", id, "UPDATE")
		if err != nil {
			return err
		}
		if !ok {
			return notFoundErr("movie", id)
		}
		if err := s.checkReferences(ctx, tx, draft); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(query),
			m.Title, m.Description, m.TrailerURL, m.Year, m.Rating, m.GenreID, m.DirectorID, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDanglingReference) {
			return err
		}
		s.logDBError(ctx, "Failed to update movie in DB", err, slog.Int64("movieID", id))
		return fmt.Errorf("failed to update movie: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteMovie(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, "movies", "movie", id)
}

func (s *SQLStore) deleteRow(ctx context.Context, table, kind string, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		s.logDBError(ctx, "Failed to delete row from DB", err, slog.String("table", table), slog.Int64("id", id))
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr(kind, id)
	}
	return nil
}

func (s *SQLStore) createNamed(ctx context.Context, table, kind string, draft domain.NameDraft) (int64, error) {
	if err := checkCreate(draft); err != nil {
		return 0, err
	}
	var id int64
	query := "INSERT INTO " + table + " (name) VALUES (?) RETURNING id"
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(query), draft.Value()).Scan(&id); err != nil {
		s.logDBError(ctx, "Failed to create row in DB", err, slog.String("table", table))
		return 0, fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return id, nil
}

func (s *SQLStore) updateNamed(ctx context.Context, table, kind string, id int64, draft domain.NameDraft) error {
	query := "UPDATE " + table + " SET name = ? WHERE id = ?"
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), draft.Value(), id)
	if err != nil {
		s.logDBError(ctx, "Failed to update row in DB", err, slog.String("table", table), slog.Int64("id", id))
		return fmt.Errorf("failed to update %s: %w", kind, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr(kind, id)
	}
	return nil
}

func getNamed[T any](ctx context.Context, s *SQLStore, table, kind string, id int64) (*T, error) {
	var row T
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT id, name FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr(kind, id)
		}
		s.logDBError(ctx, "Failed to get row by ID from DB", err, slog.String("table", table), slog.Int64("id", id))
		return nil, fmt.Errorf("failed to get %s by ID: %w", kind, err)
	}
	return &row, nil
}

func listNamed[T any](ctx context.Context, s *SQLStore, table, kind string) ([]T, error) {
	rows := []T{}
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, name FROM "+table+" ORDER BY id"); err != nil {
		s.logDBError(ctx, "Failed to list rows from DB", err, slog.String("table", table))
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	return rows, nil
}

func (s *SQLStore) CreateDirector(ctx context.Context, draft domain.NameDraft) (int64, error) {
	return s.createNamed(ctx, "directors", "director", draft)
}

func (s *SQLStore) GetDirector(ctx context.Context, id int64) (*domain.Director, error) {
	return getNamed[domain.Director](ctx, s, "directors", "director", id)
}

func (s *SQLStore) ListDirectors(ctx context.Context) ([]domain.Director, error) {
	return listNamed[domain.Director](ctx, s, "directors", "director")
}

func (s *SQLStore) UpdateDirector(ctx context.Context, id int64, draft domain.NameDraft) error {
	return s.updateNamed(ctx, "directors", "director", id, draft)
}

func (s *SQLStore) DeleteDirector(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, "directors", "director", id)
}

func (s *SQLStore) CreateGenre(ctx context.Context, draft domain.NameDraft) (int64, error) {
	return s.createNamed(ctx, "genres", "genre", draft)
}

func (s *SQLStore) GetGenre(ctx context.Context, id int64) (*domain.Genre, error) {
	return getNamed[domain.Genre](ctx, s, "genres", "genre", id)
}

func (s *SQLStore) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	return listNamed[domain.Genre](ctx, s, "genres", "genre")
}

func (s *SQLStore) UpdateGenre(ctx context.Context, id int64, draft domain.NameDraft) error {
	return s.updateNamed(ctx, "genres", "genre", id, draft)
}

func (s *SQLStore) DeleteGenre(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, "genres", "genre", id)
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
