package models

import (
	"testing"
	"time"
)

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		wantErr   bool
	}{
		{"valid uuid-style", "550e8400-e29b-41d4-a716-446655440000", false},
		{"valid with underscores", "session_ab12_cd34", false},
		{"too short", "short", true},
		{"empty", "", true},
		{"illegal characters", "session!with@symbols#", true},
		{"too long", string(make([]byte, 101)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.sessionID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.sessionID, err, tt.wantErr)
			}
		})
	}
}

func TestProgressRecordAccuracy(t *testing.T) {
	rec := &ProgressRecord{TotalAttempts: 0, CorrectAttempts: 0}
	if got := rec.Accuracy(); got != 0 {
		t.Errorf("Accuracy() with no attempts = %v, want 0", got)
	}

	rec = &ProgressRecord{TotalAttempts: 8, CorrectAttempts: 6}
	if got := rec.Accuracy(); got != 0.75 {
		t.Errorf("Accuracy() = %v, want 0.75", got)
	}
}

func TestProgressUpdateValidate(t *testing.T) {
	valid := func() *ProgressUpdate {
		return &ProgressUpdate{
			SessionID:       "update-validate-session",
			Level:           1,
			TotalAttempts:   2,
			CorrectAttempts: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ProgressUpdate)
		wantErr bool
	}{
		{"valid", func(u *ProgressUpdate) {}, false},
		{"zero level", func(u *ProgressUpdate) { u.Level = 0 }, true},
		{"negative counter", func(u *ProgressUpdate) { u.TimeSpent = -1 }, true},
		{"correct exceeds total", func(u *ProgressUpdate) { u.CorrectAttempts = 3 }, true},
		{"negative streak", func(u *ProgressUpdate) { s := -1; u.CurrentStreak = &s }, true},
		{"attempt without word", func(u *ProgressUpdate) { u.WordAttempt = &WordAttemptPayload{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid()
			tt.mutate(u)
			err := u.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeAttempts(t *testing.T) {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	a := []WordAttempt{
		{Word: "cat", Timestamp: base.Add(2 * time.Second)},
		{Word: "dog", Timestamp: base},
	}
	b := []WordAttempt{
		{Word: "cat", Timestamp: base.Add(2 * time.Second)}, // duplicate of a[0]
		{Word: "fish", Timestamp: base.Add(time.Second)},
	}

	merged := MergeAttempts(a, b)
	if len(merged) != 3 {
		t.Fatalf("MergeAttempts() returned %d attempts, want 3", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Timestamp.Before(merged[i-1].Timestamp) {
			t.Errorf("attempts not sorted ascending at index %d", i)
		}
	}
}

func TestMergeAttemptsTruncates(t *testing.T) {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	var a []WordAttempt
	for i := 0; i < MaxStoredAttempts+20; i++ {
		a = append(a, WordAttempt{Word: "tree", Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	merged := MergeAttempts(a, nil)
	if len(merged) != MaxStoredAttempts {
		t.Fatalf("MergeAttempts() returned %d attempts, want %d", len(merged), MaxStoredAttempts)
	}
	// The oldest entries are the ones dropped.
	if !merged[0].Timestamp.Equal(base.Add(20 * time.Second)) {
		t.Errorf("truncation kept the wrong end: first timestamp %v", merged[0].Timestamp)
	}
}
