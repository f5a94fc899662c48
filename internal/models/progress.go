package models

import (
	"errors"
	"time"
)

// ProgressRecord holds the per-level aggregate counters for a session.
// The counter fields (WordsCompleted, TotalAttempts, CorrectAttempts,
// TimeSpentSeconds) are additive: they only ever increase over the record's
// lifetime. CurrentStreak may reset to zero; BestStreak never decreases.
type ProgressRecord struct {
	SessionID        string        `json:"sessionId"`
	Level            int           `json:"level"`
	WordsCompleted   int           `json:"wordsCompleted"`
	TotalAttempts    int           `json:"totalAttempts"`
	CorrectAttempts  int           `json:"correctAttempts"`
	CurrentStreak    int           `json:"currentStreak"`
	BestStreak       int           `json:"bestStreak"`
	TimeSpentSeconds int           `json:"timeSpent"`
	LastPlayedAt     time.Time     `json:"lastPlayedAt"`
	WordAttempts     []WordAttempt `json:"wordAttempts,omitempty"`
}

// Accuracy is always derived from the counters, never stored or merged
// directly. Zero attempts yields zero.
func (r *ProgressRecord) Accuracy() float64 {
	if r.TotalAttempts == 0 {
		return 0
	}
	return float64(r.CorrectAttempts) / float64(r.TotalAttempts)
}

// IsEmpty reports whether the record carries no progress at all.
func (r *ProgressRecord) IsEmpty() bool {
	return r == nil || (r.TotalAttempts == 0 && r.WordsCompleted == 0 &&
		r.TimeSpentSeconds == 0 && r.BestStreak == 0 && len(r.WordAttempts) == 0)
}

// Validate checks the record's domain invariants.
func (r *ProgressRecord) Validate() error {
	if r.Level < 1 {
		return errors.New("level must be at least 1")
	}
	if r.WordsCompleted < 0 || r.TotalAttempts < 0 || r.CorrectAttempts < 0 ||
		r.CurrentStreak < 0 || r.BestStreak < 0 || r.TimeSpentSeconds < 0 {
		return errors.New("counters must be non-negative")
	}
	if r.CorrectAttempts > r.TotalAttempts {
		return errors.New("correct attempts cannot exceed total attempts")
	}
	return nil
}
