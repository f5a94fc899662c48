package security

import (
	"github.com/google/uuid"
)

// GenerateSessionID creates a new UUID for session identification. UUIDs
// satisfy the session-id shape rules (10-100 chars, alphanumeric plus
// hyphen) and are unique without server coordination, which is what lets
// the client mint its own id while offline.
func GenerateSessionID() string {
	return uuid.New().String()
}
