package models

import (
	"fmt"
	"time"
)

// Session identifies one learner's continuous play history across visits.
// The ID is client-generated and immutable once created; the server creates
// the row on first sync (upsert-on-first-write).
type Session struct {
	SessionID    string
	DisplayName  string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

const (
	// DefaultDisplayName is used when a session is created without a name.
	DefaultDisplayName = "Anonymous"

	sessionIDMinLen = 10
	sessionIDMaxLen = 100
)

// ValidateSessionID checks the structural rules for a session identifier:
// 10-100 characters, alphanumeric plus hyphen and underscore.
func ValidateSessionID(id string) error {
	if len(id) < sessionIDMinLen || len(id) > sessionIDMaxLen {
		return fmt.Errorf("session id must be %d-%d characters, got %d", sessionIDMinLen, sessionIDMaxLen, len(id))
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return fmt.Errorf("session id contains invalid character %q", c)
		}
	}
	return nil
}
