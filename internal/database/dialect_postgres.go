package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// PostgreSQL has foreign keys enabled by default, no pragma needed
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) UpsertSessionQuery() string {
	return `
		INSERT INTO sessions (session_id, display_name, created_at, last_active_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			display_name = COALESCE(NULLIF(excluded.display_name, ''), sessions.display_name),
			last_active_at = GREATEST(sessions.last_active_at, excluded.last_active_at)
	`
}

func (d *PostgresDialect) UpsertProgressQuery(withStreak bool) string {
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
			best_streak = GREATEST(progress_records.best_streak, excluded.best_streak),
			last_played_at = GREATEST(progress_records.last_played_at, excluded.last_played_at),
			updated_at = excluded.updated_at
	`
}

func (d *PostgresDialect) InsertAttemptIgnoreQuery() string {
	return `
		INSERT INTO word_attempts (session_id, level, word, success, time_taken_seconds,
			error_pattern, user_input, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, word, attempted_at) DO NOTHING
	`
}
