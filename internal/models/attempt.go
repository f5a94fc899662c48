package models

import (
	"sort"
	"time"
)

// MaxStoredAttempts bounds how many attempts the client keeps per session.
// The server retains everything for analytics.
const MaxStoredAttempts = 100

// WordAttempt is one immutable recorded try at a word.
type WordAttempt struct {
	Word             string    `json:"word"`
	Level            int       `json:"level"`
	Success          bool      `json:"success"`
	TimeTakenSeconds int       `json:"timeTaken"`
	ErrorPattern     string    `json:"errorPattern,omitempty"`
	UserInput        string    `json:"userInput"`
	Timestamp        time.Time `json:"timestamp"`
}

// attemptKey is the composite identity used for de-duplication. Two attempts
// at the same word in the same instant are the same event, however many times
// they are synced.
type attemptKey struct {
	word string
	ts   int64
}

// MergeAttempts unions two attempt lists, de-duplicates by (word, timestamp),
// sorts ascending by timestamp, and truncates to the most recent
// MaxStoredAttempts entries.
func MergeAttempts(a, b []WordAttempt) []WordAttempt {
	seen := make(map[attemptKey]bool, len(a)+len(b))
	merged := make([]WordAttempt, 0, len(a)+len(b))
	for _, list := range [][]WordAttempt{a, b} {
		for _, at := range list {
			k := attemptKey{word: at.Word, ts: at.Timestamp.UnixMilli()}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, at)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	if len(merged) > MaxStoredAttempts {
		merged = merged[len(merged)-MaxStoredAttempts:]
	}
	return merged
}
