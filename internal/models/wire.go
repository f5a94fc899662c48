package models

import (
	"errors"
	"fmt"
	"time"
)

// Wire shapes for the server API. The server speaks snake_case; the game
// client's own state is camelCase (see ProgressRecord). The client API layer
// translates between the two.

// WordAttemptPayload is the attempt shape carried inside a progress update.
type WordAttemptPayload struct {
	Word         string     `json:"word"`
	Success      bool       `json:"success"`
	TimeTaken    int        `json:"time_taken"`
	UserInput    string     `json:"user_input"`
	ErrorPattern string     `json:"error_pattern,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// ProgressUpdate is the body of POST /progress. The counter fields are
// deltas to apply on top of the stored counters, not absolute values;
// CurrentStreak is absolute (most recent activity wins for "current" state).
type ProgressUpdate struct {
	SessionID       string              `json:"session_id"`
	DisplayName     string              `json:"display_name,omitempty"`
	Level           int                 `json:"level"`
	WordsCompleted  int                 `json:"words_completed,omitempty"`
	TotalAttempts   int                 `json:"total_attempts,omitempty"`
	CorrectAttempts int                 `json:"correct_attempts,omitempty"`
	TimeSpent       int                 `json:"time_spent,omitempty"`
	CurrentStreak   *int                `json:"current_streak,omitempty"`
	WordAttempt     *WordAttemptPayload `json:"word_attempt,omitempty"`
}

// IsZero reports whether the update carries nothing to apply.
func (u *ProgressUpdate) IsZero() bool {
	return u.WordsCompleted == 0 && u.TotalAttempts == 0 && u.CorrectAttempts == 0 &&
		u.TimeSpent == 0 && u.CurrentStreak == nil && u.WordAttempt == nil
}

// Validate checks the update's domain invariants. Transport-layer bounds
// (level ranges, daily time caps) are enforced upstream; only the invariants
// the progress domain owns are re-checked here.
func (u *ProgressUpdate) Validate() error {
	if err := ValidateSessionID(u.SessionID); err != nil {
		return err
	}
	if u.Level < 1 {
		return errors.New("level must be at least 1")
	}
	if u.WordsCompleted < 0 || u.TotalAttempts < 0 || u.CorrectAttempts < 0 || u.TimeSpent < 0 {
		return errors.New("counter deltas must be non-negative")
	}
	if u.CorrectAttempts > u.TotalAttempts {
		return errors.New("correct attempts cannot exceed total attempts")
	}
	if u.CurrentStreak != nil && *u.CurrentStreak < 0 {
		return errors.New("current streak must be non-negative")
	}
	if u.WordAttempt != nil && u.WordAttempt.Word == "" {
		return errors.New("word attempt requires a word")
	}
	return nil
}

// AssessmentInfo is the assessment annotation attached to each level in a
// progress read.
type AssessmentInfo struct {
	ReadyToAdvance    bool   `json:"ready_to_advance"`
	RecommendedLevel  int    `json:"recommended_level"`
	RecommendedAction string `json:"recommended_action"`
	ImprovementTrend  string `json:"improvement_trend"`
}

// LevelProgress is one level's entry in a progress read.
type LevelProgress struct {
	Level            int             `json:"level"`
	WordsCompleted   int             `json:"words_completed"`
	TotalAttempts    int             `json:"total_attempts"`
	CorrectAttempts  int             `json:"correct_attempts"`
	TimeSpent        int             `json:"time_spent"`
	CurrentStreak    int             `json:"current_streak"`
	BestStreak       int             `json:"best_streak"`
	LastPlayedAt     time.Time       `json:"last_played_at"`
	Accuracy         float64         `json:"accuracy"`
	Assessment       *AssessmentInfo `json:"assessment,omitempty"`
}

// ProgressReadResult is the body of GET /progress/{sessionId}. Unknown
// sessions get the empty stub (current level 1, no levels) rather than a 404;
// a brand-new learner is a normal case, not an error.
type ProgressReadResult struct {
	SessionID    string          `json:"session_id"`
	DisplayName  string          `json:"display_name,omitempty"`
	CurrentLevel int             `json:"current_level"`
	TotalScore   int             `json:"total_score"`
	Levels       []LevelProgress `json:"levels"`
}

// AttemptRecord is one stored attempt as served by the analytics read.
type AttemptRecord struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Level        int       `json:"level"`
	Word         string    `json:"word"`
	Success      bool      `json:"success"`
	TimeTaken    int       `json:"time_taken"`
	ErrorPattern string    `json:"error_pattern,omitempty"`
	UserInput    string    `json:"user_input"`
	AttemptedAt  time.Time `json:"attempted_at"`
}

// ToDomain converts a stored attempt back into the domain event shape.
func (a *AttemptRecord) ToDomain() WordAttempt {
	return WordAttempt{
		Word:             a.Word,
		Level:            a.Level,
		Success:          a.Success,
		TimeTakenSeconds: a.TimeTaken,
		ErrorPattern:     a.ErrorPattern,
		UserInput:        a.UserInput,
		Timestamp:        a.AttemptedAt,
	}
}

// SessionSummary is one session's entry in the admin listing.
type SessionSummary struct {
	SessionID     string    `json:"session_id"`
	DisplayName   string    `json:"display_name"`
	CreatedAt     time.Time `json:"created_at"`
	LastActiveAt  time.Time `json:"last_active_at"`
	LevelsPlayed  int       `json:"levels_played"`
	TotalAttempts int       `json:"total_attempts"`
}

// String implements fmt.Stringer for log output.
func (s SessionSummary) String() string {
	return fmt.Sprintf("%s (%s) levels=%d attempts=%d", s.SessionID, s.DisplayName, s.LevelsPlayed, s.TotalAttempts)
}
