package repository

import (
	"database/sql"
	"time"

	"wordbuilder/internal/database"
	"wordbuilder/internal/models"
)

// AttemptRepository handles word attempt database operations
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new attempt repository. Pass a *database.Tx
// to scope the repository's operations to a transaction.
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Insert records a word attempt. Attempts are identified by
// (session, word, timestamp); re-inserting the same event is silently
// skipped and reported via the returned bool, so replayed syncs stay
// idempotent.
func (r *AttemptRepository) Insert(sessionID string, level int, attempt *models.WordAttemptPayload, attemptedAt time.Time) (bool, error) {
	var pattern sql.NullString
	if attempt.ErrorPattern != "" {
		pattern = sql.NullString{String: attempt.ErrorPattern, Valid: true}
	}

	result, err := r.db.Exec(r.db.GetDialect().InsertAttemptIgnoreQuery(),
		sessionID,
		level,
		attempt.Word,
		attempt.Success,
		attempt.TimeTaken,
		pattern,
		attempt.UserInput,
		attemptedAt.UTC(),
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const attemptColumns = `
	id, session_id, level, word, success, time_taken_seconds,
	error_pattern, user_input, attempted_at
`

// Recent retrieves the most recent attempts for a session, optionally
// filtered to one level (level 0 means all levels), newest first.
func (r *AttemptRepository) Recent(sessionID string, level, limit int) ([]models.AttemptRecord, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM word_attempts
		WHERE session_id = ?
	`
	args := []interface{}{sessionID}
	if level > 0 {
		query += " AND level = ?"
		args = append(args, level)
	}
	query += " ORDER BY attempted_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]models.AttemptRecord, error) {
	var attempts []models.AttemptRecord
	for rows.Next() {
		var a models.AttemptRecord
		var pattern sql.NullString
		err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.Level,
			&a.Word,
			&a.Success,
			&a.TimeTaken,
			&pattern,
			&a.UserInput,
			&a.AttemptedAt,
		)
		if err != nil {
			return nil, err
		}
		if pattern.Valid {
			a.ErrorPattern = pattern.String
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
