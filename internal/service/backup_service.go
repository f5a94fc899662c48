package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Sessions   []SessionBackup  `json:"sessions"`
	Progress   []ProgressBackup `json:"progress"`
	Attempts   []AttemptBackup  `json:"attempts"`
}

// SessionBackup represents a session record for backup
type SessionBackup struct {
	SessionID    string    `json:"session_id"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// ProgressBackup represents a progress record for backup
type ProgressBackup struct {
	SessionID        string    `json:"session_id"`
	Level            int       `json:"level"`
	WordsCompleted   int       `json:"words_completed"`
	TotalAttempts    int       `json:"total_attempts"`
	CorrectAttempts  int       `json:"correct_attempts"`
	CurrentStreak    int       `json:"current_streak"`
	BestStreak       int       `json:"best_streak"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	LastPlayedAt     time.Time `json:"last_played_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AttemptBackup represents a word attempt record for backup
type AttemptBackup struct {
	SessionID        string    `json:"session_id"`
	Level            int       `json:"level"`
	Word             string    `json:"word"`
	Success          bool      `json:"success"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	ErrorPattern     string    `json:"error_pattern,omitempty"`
	UserInput        string    `json:"user_input"`
	AttemptedAt      time.Time `json:"attempted_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *zap.Logger) *BackupService {
	return &BackupService{db: db, log: log}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	s.log.Info("Starting database export")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportSessions(backup); err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}
	if err := s.exportProgress(backup); err != nil {
		return fmt.Errorf("failed to export progress: %w", err)
	}
	if err := s.exportAttempts(backup); err != nil {
		return fmt.Errorf("failed to export attempts: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("Database exported",
		zap.String("path", outputPath),
		zap.Int("sessions", len(backup.Sessions)),
		zap.Int("progress_records", len(backup.Progress)),
		zap.Int("attempts", len(backup.Attempts)))

	return nil
}

// Import restores a database from a backup file. Counter rows go through
// the additive upsert, so restore into an empty database; importing over
// live data adds the backup's counters on top of it.
func (s *BackupService) Import(inputPath string) error {
	s.log.Info("Starting database import", zap.String("path", inputPath))

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var backup BackupData
	if err := json.NewDecoder(file).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	// Import in order of foreign key dependencies
	if err := s.importSessions(backup.Sessions); err != nil {
		return fmt.Errorf("failed to import sessions: %w", err)
	}
	if err := s.importProgress(backup.Progress); err != nil {
		return fmt.Errorf("failed to import progress: %w", err)
	}
	if err := s.importAttempts(backup.Attempts); err != nil {
		return fmt.Errorf("failed to import attempts: %w", err)
	}

	s.log.Info("Database import completed")
	return nil
}

func (s *BackupService) exportSessions(backup *BackupData) error {
	rows, err := s.db.Query("SELECT session_id, display_name, created_at, last_active_at FROM sessions ORDER BY created_at")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sb SessionBackup
		if err := rows.Scan(&sb.SessionID, &sb.DisplayName, &sb.CreatedAt, &sb.LastActiveAt); err != nil {
			return err
		}
		backup.Sessions = append(backup.Sessions, sb)
	}
	return rows.Err()
}

func (s *BackupService) exportProgress(backup *BackupData) error {
	rows, err := s.db.Query(`
		SELECT session_id, level, words_completed, total_attempts, correct_attempts,
		       current_streak, best_streak, time_spent_seconds, last_played_at, updated_at
		FROM progress_records ORDER BY session_id, level
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pb ProgressBackup
		err := rows.Scan(&pb.SessionID, &pb.Level, &pb.WordsCompleted, &pb.TotalAttempts,
			&pb.CorrectAttempts, &pb.CurrentStreak, &pb.BestStreak, &pb.TimeSpentSeconds,
			&pb.LastPlayedAt, &pb.UpdatedAt)
		if err != nil {
			return err
		}
		backup.Progress = append(backup.Progress, pb)
	}
	return rows.Err()
}

func (s *BackupService) exportAttempts(backup *BackupData) error {
	rows, err := s.db.Query(`
		SELECT session_id, level, word, success, time_taken_seconds,
		       error_pattern, user_input, attempted_at
		FROM word_attempts ORDER BY attempted_at
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ab AttemptBackup
		var pattern sql.NullString
		err := rows.Scan(&ab.SessionID, &ab.Level, &ab.Word, &ab.Success,
			&ab.TimeTakenSeconds, &pattern, &ab.UserInput, &ab.AttemptedAt)
		if err != nil {
			return err
		}
		if pattern.Valid {
			ab.ErrorPattern = pattern.String
		}
		backup.Attempts = append(backup.Attempts, ab)
	}
	return rows.Err()
}

func (s *BackupService) importSessions(sessions []SessionBackup) error {
	query := s.db.Dialect.UpsertSessionQuery()
	for _, sb := range sessions {
		if _, err := s.db.Exec(query, sb.SessionID, sb.DisplayName, sb.CreatedAt, sb.LastActiveAt); err != nil {
			return fmt.Errorf("session %s: %w", sb.SessionID, err)
		}
	}
	return nil
}

func (s *BackupService) importProgress(records []ProgressBackup) error {
	query := s.db.Dialect.UpsertProgressQuery(true)
	for _, pb := range records {
		_, err := s.db.Exec(query,
			pb.SessionID, pb.Level, pb.WordsCompleted, pb.TotalAttempts, pb.CorrectAttempts,
			pb.CurrentStreak, pb.BestStreak, pb.TimeSpentSeconds, pb.LastPlayedAt, pb.UpdatedAt)
		if err != nil {
			return fmt.Errorf("progress %s level %d: %w", pb.SessionID, pb.Level, err)
		}
	}
	return nil
}

func (s *BackupService) importAttempts(attempts []AttemptBackup) error {
	query := s.db.Dialect.InsertAttemptIgnoreQuery()
	for _, ab := range attempts {
		var pattern sql.NullString
		if ab.ErrorPattern != "" {
			pattern = sql.NullString{String: ab.ErrorPattern, Valid: true}
		}
		_, err := s.db.Exec(query,
			ab.SessionID, ab.Level, ab.Word, ab.Success, ab.TimeTakenSeconds,
			pattern, ab.UserInput, ab.AttemptedAt)
		if err != nil {
			return fmt.Errorf("attempt %s/%s: %w", ab.SessionID, ab.Word, err)
		}
	}
	return nil
}
