package store

// No foreign key constraints: references are checked by the store at write
// time, and deleting a genre or director must leave dependent movies as they are.
var schemas = map[string][]string{
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS genres (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS directors (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movies (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			trailer     TEXT NOT NULL DEFAULT '',
			year        INTEGER NOT NULL DEFAULT 0,
			rating      REAL NOT NULL DEFAULT 0,
			genre_id    INTEGER,
			director_id INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_genre ON movies(genre_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_director ON movies(director_id)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS genres (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS directors (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movies (
			id          BIGSERIAL PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			trailer     TEXT NOT NULL DEFAULT '',
			year        BIGINT NOT NULL DEFAULT 0,
			rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
			genre_id    BIGINT,
			director_id BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_genre ON movies(genre_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_director ON movies(director_id)`,
	},
}
