package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) UpsertSessionQuery() string {
	return `
		INSERT INTO sessions (session_id, display_name, created_at, last_active_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			display_name = COALESCE(NULLIF(VALUES(display_name), ''), display_name),
			last_active_at = GREATEST(last_active_at, VALUES(last_active_at))
	`
}

func (d *MySQLDialect) UpsertProgressQuery(withStreak bool) string {
	streakClause := ""
	if withStreak {
		streakClause = "current_streak = VALUES(current_streak),"
	}
	return `
		INSERT INTO progress_records (session_id, level, words_completed, total_attempts,
			correct_attempts, current_streak, best_streak, time_spent_seconds,
			last_played_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			words_completed = words_completed + VALUES(words_completed),
			total_attempts = total_attempts + VALUES(total_attempts),
			correct_attempts = correct_attempts + VALUES(correct_attempts),
			time_spent_seconds = time_spent_seconds + VALUES(time_spent_seconds),
			` + streakClause + `
			best_streak = GREATEST(best_streak, VALUES(best_streak)),
			last_played_at = GREATEST(last_played_at, VALUES(last_played_at)),
			updated_at = VALUES(updated_at)
	`
}

func (d *MySQLDialect) InsertAttemptIgnoreQuery() string {
	return `
		INSERT IGNORE INTO word_attempts (session_id, level, word, success, time_taken_seconds,
			error_pattern, user_input, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
}
