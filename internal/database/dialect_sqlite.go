package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) UpsertSessionQuery() string {
	return `
		INSERT INTO sessions (session_id, display_name, created_at, last_active_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			display_name = COALESCE(NULLIF(excluded.display_name, ''), sessions.display_name),
			last_active_at = MAX(sessions.last_active_at, excluded.last_active_at)
	`
}

func (d *SQLiteDialect) UpsertProgressQuery(withStreak bool) string {
	streakClause := ""
	if withStreak {
		streakClause = "current_streak = excluded.current_streak,"
	}
	return `
		INSERT INTO progress_records (session_id, level, words_completed, total_attempts,
			correct_attempts, current_streak, best_streak, time_spent_seconds,
			last_played_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, level) DO UPDATE SET
			words_completed = progress_records.words_completed + excluded.words_completed,
			total_attempts = progress_records.total_attempts + excluded.total_attempts,
			correct_attempts = progress_records.correct_attempts + excluded.correct_attempts,
			time_spent_seconds = progress_records.time_spent_seconds + excluded.time_spent_seconds,
			` + streakClause + `
			best_streak = MAX(progress_records.best_streak, excluded.best_streak),
			last_played_at = MAX(progress_records.last_played_at, excluded.last_played_at),
			updated_at = excluded.updated_at
	`
}

func (d *SQLiteDialect) InsertAttemptIgnoreQuery() string {
	return `
		INSERT INTO word_attempts (session_id, level, word, success, time_taken_seconds,
			error_pattern, user_input, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, word, attempted_at) DO NOTHING
	`
}
