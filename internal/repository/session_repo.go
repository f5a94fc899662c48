package repository

import (
	"database/sql"
	"errors"

	"wordbuilder/internal/database"
	"wordbuilder/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SessionRepository handles session database operations
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository. Pass a *database.Tx
// to scope the repository's operations to a transaction.
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert creates the session row if absent, otherwise refreshes the display
// name (when non-empty) and advances last_active_at. The session id is
// immutable and last_active_at never moves backwards.
func (r *SessionRepository) Upsert(session *models.Session) error {
	_, err := r.db.Exec(r.db.GetDialect().UpsertSessionQuery(),
		session.SessionID, session.DisplayName, session.CreatedAt.UTC(), session.LastActiveAt.UTC())
	return err
}

// GetByID retrieves a session by its identifier
func (r *SessionRepository) GetByID(sessionID string) (*models.Session, error) {
	query := `
		SELECT session_id, display_name, created_at, last_active_at
		FROM sessions
		WHERE session_id = ?
	`

	session := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&session.SessionID,
		&session.DisplayName,
		&session.CreatedAt,
		&session.LastActiveAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// List returns every session with aggregate activity counts, most recently
// active first.
func (r *SessionRepository) List() ([]models.SessionSummary, error) {
	query := `
		SELECT s.session_id, s.display_name, s.created_at, s.last_active_at,
		       COUNT(p.level), COALESCE(SUM(p.total_attempts), 0)
		FROM sessions s
		LEFT JOIN progress_records p ON p.session_id = s.session_id
		GROUP BY s.session_id, s.display_name, s.created_at, s.last_active_at
		ORDER BY s.last_active_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		err := rows.Scan(&s.SessionID, &s.DisplayName, &s.CreatedAt, &s.LastActiveAt,
			&s.LevelsPlayed, &s.TotalAttempts)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Delete removes a session and, via cascading foreign keys, its progress
// records and word attempts. Only explicit administrative action calls this.
func (r *SessionRepository) Delete(sessionID string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
