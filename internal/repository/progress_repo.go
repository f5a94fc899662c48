package repository

import (
	"time"

	"wordbuilder/internal/database"
	"wordbuilder/internal/models"
)

// ProgressRepository handles progress record database operations
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository. Pass a
// *database.Tx to scope the repository's operations to a transaction.
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ApplyDelta adds the delta's counters to the stored record for
// (session, level), creating the row if absent. Counters only accumulate,
// best_streak takes the maximum of old and new, and last_played_at never
// moves backwards. The current streak is overwritten only when streak is
// non-nil. A zero delta still writes updated_at (no-op upsert).
func (r *ProgressRepository) ApplyDelta(sessionID string, level int, delta *models.ProgressUpdate, playedAt time.Time) error {
	streak := 0
	withStreak := delta.CurrentStreak != nil
	if withStreak {
		streak = *delta.CurrentStreak
	}

	query := r.db.GetDialect().UpsertProgressQuery(withStreak)
	_, err := r.db.Exec(query,
		sessionID,
		level,
		delta.WordsCompleted,
		delta.TotalAttempts,
		delta.CorrectAttempts,
		streak,
		streak, // best_streak candidate; the query keeps the maximum
		delta.TimeSpent,
		playedAt.UTC(),
		time.Now().UTC(),
	)
	return err
}

const progressColumns = `
	session_id, level, words_completed, total_attempts, correct_attempts,
	current_streak, best_streak, time_spent_seconds, last_played_at
`

// GetAll retrieves every level's progress record for a session, lowest
// level first.
func (r *ProgressRepository) GetAll(sessionID string) ([]models.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE session_id = ?
		ORDER BY level ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var rec models.ProgressRecord
		err := rows.Scan(
			&rec.SessionID,
			&rec.Level,
			&rec.WordsCompleted,
			&rec.TotalAttempts,
			&rec.CorrectAttempts,
			&rec.CurrentStreak,
			&rec.BestStreak,
			&rec.TimeSpentSeconds,
			&rec.LastPlayedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
