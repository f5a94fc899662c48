package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/assessment"
	"wordbuilder/internal/classify"
	"wordbuilder/internal/database"
	"wordbuilder/internal/models"
	"wordbuilder/internal/repository"
)

// ErrValidation marks a rejected update. Handlers translate it to a 400 so
// the client knows not to retry.
var ErrValidation = errors.New("validation failed")

// Scoring weights for the aggregate total_score served on reads.
const (
	pointsPerCorrect    = 10
	pointsPerBestStreak = 5
)

// ProgressService is the server's reconciliation authority for learner
// progress: it applies additive deltas inside a single transaction and
// serves analytics reads annotated with assessment output.
type ProgressService struct {
	db     *database.DB
	engine *assessment.Engine
	log    *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(db *database.DB, engine *assessment.Engine, log *zap.Logger) *ProgressService {
	return &ProgressService{db: db, engine: engine, log: log}
}

// ApplyUpdate applies one progress update: session upsert, additive progress
// upsert, and optional word-attempt insert, all in one transaction that
// rolls back entirely on any failure. Replaying an update whose attempt
// (word, timestamp) is already stored does not double-count.
func (s *ProgressService) ApplyUpdate(update *models.ProgressUpdate) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	attemptedAt := now
	if update.WordAttempt != nil && update.WordAttempt.Timestamp != nil {
		attemptedAt = update.WordAttempt.Timestamp.UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sessionRepo := repository.NewSessionRepository(tx)
	progressRepo := repository.NewProgressRepository(tx)
	attemptRepo := repository.NewAttemptRepository(tx)

	// Create the session on first write; a missing display name defaults to
	// Anonymous on creation but never overwrites a stored one later.
	name := update.DisplayName
	if _, err := sessionRepo.GetByID(update.SessionID); errors.Is(err, repository.ErrNotFound) {
		if name == "" {
			name = models.DefaultDisplayName
		}
	} else if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	err = sessionRepo.Upsert(&models.Session{
		SessionID:    update.SessionID,
		DisplayName:  name,
		CreatedAt:    now,
		LastActiveAt: now,
	})
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if update.WordAttempt != nil {
		attempt := *update.WordAttempt
		if attempt.ErrorPattern == "" && !attempt.Success && attempt.UserInput != "" {
			attempt.ErrorPattern = string(classify.Classify(attempt.Word, attempt.UserInput))
		}

		inserted, err := attemptRepo.Insert(update.SessionID, update.Level, &attempt, attemptedAt)
		if err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		if !inserted {
			// Replay of an already-applied update; committing here keeps the
			// session touch but skips the counters.
			s.log.Debug("Duplicate attempt ignored",
				zap.String("session_id", update.SessionID),
				zap.String("word", attempt.Word),
				zap.Time("attempted_at", attemptedAt))
			return tx.Commit()
		}
	}

	if err := progressRepo.ApplyDelta(update.SessionID, update.Level, update, attemptedAt); err != nil {
		return fmt.Errorf("apply progress delta: %w", err)
	}

	return tx.Commit()
}

// GetProgress returns the full multi-level progress for a session, each
// level annotated with computed accuracy and assessment output. Unknown
// sessions return the empty stub rather than an error; a new learner is a
// normal case.
func (s *ProgressService) GetProgress(sessionID string) (*models.ProgressReadResult, error) {
	result := &models.ProgressReadResult{
		SessionID:    sessionID,
		CurrentLevel: 1,
		Levels:       []models.LevelProgress{},
	}

	sessionRepo := repository.NewSessionRepository(s.db)
	session, err := sessionRepo.GetByID(sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	result.DisplayName = session.DisplayName

	records, err := repository.NewProgressRepository(s.db).GetAll(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	attemptRepo := repository.NewAttemptRepository(s.db)
	for _, rec := range records {
		stored, err := attemptRepo.Recent(sessionID, rec.Level, models.MaxStoredAttempts)
		if err != nil {
			return nil, fmt.Errorf("load attempts for level %d: %w", rec.Level, err)
		}

		attempts := make([]models.WordAttempt, len(stored))
		for i, a := range stored {
			classified := withClassification(a)
			attempts[i] = classified.ToDomain()
		}

		eval := s.engine.Evaluate(&rec, attempts)
		result.Levels = append(result.Levels, models.LevelProgress{
			Level:           rec.Level,
			WordsCompleted:  rec.WordsCompleted,
			TotalAttempts:   rec.TotalAttempts,
			CorrectAttempts: rec.CorrectAttempts,
			TimeSpent:       rec.TimeSpentSeconds,
			CurrentStreak:   rec.CurrentStreak,
			BestStreak:      rec.BestStreak,
			LastPlayedAt:    rec.LastPlayedAt,
			Accuracy:        rec.Accuracy() * 100,
			Assessment: &models.AssessmentInfo{
				ReadyToAdvance:    eval.ReadyToAdvance,
				RecommendedLevel:  eval.RecommendedLevel,
				RecommendedAction: string(eval.RecommendedAction),
				ImprovementTrend:  string(eval.ImprovementTrend),
			},
		})

		if rec.TotalAttempts > 0 && rec.Level > result.CurrentLevel {
			result.CurrentLevel = rec.Level
		}
		result.TotalScore += rec.CorrectAttempts*pointsPerCorrect + rec.BestStreak*pointsPerBestStreak
	}

	return result, nil
}

// GetAttempts returns the stored attempts for a session, newest first,
// optionally filtered to one level. Failed attempts stored without a tag are
// classified on the way out.
func (s *ProgressService) GetAttempts(sessionID string, level, limit int) ([]models.AttemptRecord, error) {
	if limit <= 0 || limit > models.MaxStoredAttempts {
		limit = models.MaxStoredAttempts
	}

	stored, err := repository.NewAttemptRepository(s.db).Recent(sessionID, level, limit)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	for i, a := range stored {
		stored[i] = withClassification(a)
	}
	return stored, nil
}

// ListSessions returns every session with aggregate counts for the admin
// surface.
func (s *ProgressService) ListSessions() ([]models.SessionSummary, error) {
	return repository.NewSessionRepository(s.db).List()
}

// DeleteSession hard-deletes a session and everything under it. Returns
// repository.ErrNotFound for unknown sessions.
func (s *ProgressService) DeleteSession(sessionID string) error {
	if err := repository.NewSessionRepository(s.db).Delete(sessionID); err != nil {
		return err
	}
	s.log.Info("Session deleted", zap.String("session_id", sessionID))
	return nil
}

// withClassification fills in the error pattern for a stored failed attempt
// that was synced before classification, deriving it from the target word
// and the learner's input.
func withClassification(a models.AttemptRecord) models.AttemptRecord {
	if a.ErrorPattern == "" && !a.Success && a.UserInput != "" {
		a.ErrorPattern = string(classify.Classify(a.Word, a.UserInput))
	}
	return a
}
