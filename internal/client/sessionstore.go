package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/models"
	"wordbuilder/internal/security"
)

// ErrNoSession means there is no usable local session: the file is absent,
// unreadable, or fails structural validation. Corrupt state is never surfaced
// as a parse error; the caller starts fresh either way.
var ErrNoSession = errors.New("no local session")

// LevelState is one level's locally stored progress. Accuracy is stored as a
// percentage (0-100) and rederived from the counters on every save.
type LevelState struct {
	models.ProgressRecord
	Accuracy float64 `json:"accuracy"`
}

// LocalState is the client's durable copy of a session's progress.
type LocalState struct {
	SessionID    string              `json:"sessionId"`
	DisplayName  string              `json:"displayName,omitempty"`
	Levels       map[int]*LevelState `json:"levels"`
	Dirty        bool                `json:"dirty"`
	LastSyncedAt time.Time           `json:"lastSyncedAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Level returns the state for one level, creating it on first use.
func (s *LocalState) Level(level int) *LevelState {
	if s.Levels == nil {
		s.Levels = make(map[int]*LevelState)
	}
	ls, ok := s.Levels[level]
	if !ok {
		ls = &LevelState{ProgressRecord: models.ProgressRecord{
			SessionID: s.SessionID,
			Level:     level,
		}}
		s.Levels[level] = ls
	}
	return ls
}

func (s *LocalState) validate() error {
	if err := models.ValidateSessionID(s.SessionID); err != nil {
		return err
	}
	for level, ls := range s.Levels {
		if ls == nil {
			return fmt.Errorf("level %d: missing record", level)
		}
		if ls.Level != level {
			return fmt.Errorf("level %d: key does not match record level %d", level, ls.Level)
		}
		if err := ls.Validate(); err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		if ls.Accuracy < 0 || ls.Accuracy > 100 {
			return fmt.Errorf("level %d: accuracy %.2f out of range", level, ls.Accuracy)
		}
		if len(ls.WordAttempts) > models.MaxStoredAttempts {
			return fmt.Errorf("level %d: too many stored attempts", level)
		}
	}
	return nil
}

// SessionStore keeps the local durable copy of session progress in a single
// JSON file.
type SessionStore struct {
	path string
	log  *zap.Logger
}

func NewSessionStore(path string, log *zap.Logger) *SessionStore {
	return &SessionStore{path: path, log: log}
}

// Load reads the local copy. Absence and structural damage both come back as
// ErrNoSession so the caller's only branch is "resume or start over".
func (s *SessionStore) Load() (*LocalState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("local session unreadable", zap.String("path", s.path), zap.Error(err))
		}
		return nil, ErrNoSession
	}

	var state LocalState
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("local session corrupt, discarding", zap.String("path", s.path), zap.Error(err))
		return nil, ErrNoSession
	}
	if err := state.validate(); err != nil {
		s.log.Warn("local session failed validation, discarding", zap.String("path", s.path), zap.Error(err))
		return nil, ErrNoSession
	}

	return &state, nil
}

// Save writes the state atomically via a temp file and rename, so a crash
// mid-write never leaves a partial file for the next Load.
func (s *SessionStore) Save(state *LocalState) error {
	if state == nil {
		return errors.New("nil state")
	}

	state.UpdatedAt = time.Now()
	for _, ls := range state.Levels {
		ls.Accuracy = ls.ProgressRecord.Accuracy() * 100
		if len(ls.WordAttempts) > models.MaxStoredAttempts {
			ls.WordAttempts = ls.WordAttempts[len(ls.WordAttempts)-models.MaxStoredAttempts:]
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing session state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing session state: %w", err)
	}

	return nil
}

// GenerateSessionID produces a fresh session id. Callers must prefer an id
// recovered by Load; minting a new one for an existing learner splits their
// history across duplicate sessions.
func (s *SessionStore) GenerateSessionID() string {
	return security.GenerateSessionID()
}
