package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertSessionQuery returns the insert-or-update statement for the
	// sessions table. Args: session_id, display_name, created_at,
	// last_active_at. An empty display name never clobbers a stored one,
	// and last_active_at only moves forward.
	UpsertSessionQuery() string

	// UpsertProgressQuery returns the additive insert-or-update statement for
	// the progress_records table. Counter columns accumulate, best_streak
	// takes the maximum, last_played_at only moves forward; current_streak is
	// overwritten only when withStreak is true. Args: session_id, level,
	// words_completed, total_attempts, correct_attempts, current_streak,
	// best_streak, time_spent_seconds, last_played_at, updated_at.
	UpsertProgressQuery(withStreak bool) string

	// InsertAttemptIgnoreQuery returns the insert statement for the
	// word_attempts table that silently skips duplicates of the
	// (session_id, word, attempted_at) key. Args: session_id, level, word,
	// success, time_taken_seconds, error_pattern, user_input, attempted_at.
	InsertAttemptIgnoreQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders not inside quotes
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
