package assessment

import (
	"testing"
	"time"

	"wordbuilder/internal/models"
)

func baseRecord() *models.ProgressRecord {
	return &models.ProgressRecord{
		SessionID:        "learner-a1b2c3",
		Level:            2,
		WordsCompleted:   5,
		TotalAttempts:    6,
		CorrectAttempts:  5,
		TimeSpentSeconds: 240,
		LastPlayedAt:     time.Now(),
	}
}

func TestIsReadyToAdvance(t *testing.T) {
	engine := NewEngine(DefaultThresholds())

	tests := []struct {
		name   string
		mutate func(*models.ProgressRecord)
		want   bool
	}{
		{"meets all criteria", func(r *models.ProgressRecord) {}, true},
		{"accuracy below threshold", func(r *models.ProgressRecord) { r.CorrectAttempts = 4 }, false},
		{"too few attempts", func(r *models.ProgressRecord) { r.TotalAttempts = 4; r.CorrectAttempts = 4 }, false},
		{"no words completed", func(r *models.ProgressRecord) { r.WordsCompleted = 0 }, false},
		{"too slow per word", func(r *models.ProgressRecord) { r.TimeSpentSeconds = 301 }, false},
		{"zero attempts never ready", func(r *models.ProgressRecord) { r.TotalAttempts = 0; r.CorrectAttempts = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseRecord()
			tt.mutate(rec)
			if got := engine.IsReadyToAdvance(rec, nil); got != tt.want {
				t.Errorf("IsReadyToAdvance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMultipleErrorPatternsBlockAdvancement(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	rec := baseRecord()

	now := time.Now()
	attempts := []models.WordAttempt{
		{Word: "cat", Success: false, ErrorPattern: "vowel_confusion", Timestamp: now},
		{Word: "dog", Success: false, ErrorPattern: "phonetic_confusion", Timestamp: now.Add(time.Second)},
	}

	if engine.IsReadyToAdvance(rec, attempts) {
		t.Error("two distinct error patterns should block advancement")
	}

	res := engine.Evaluate(rec, attempts)
	if res.RecommendedAction != ActionFocusOnErrorPatterns {
		t.Errorf("RecommendedAction = %q, want %q", res.RecommendedAction, ActionFocusOnErrorPatterns)
	}
	if res.RecommendedLevel != rec.Level {
		t.Errorf("RecommendedLevel = %d, want %d", res.RecommendedLevel, rec.Level)
	}

	// A single systematic error does not block.
	if !engine.IsReadyToAdvance(rec, attempts[:1]) {
		t.Error("one error pattern should not block advancement")
	}
}

func TestEvaluateRecommendations(t *testing.T) {
	engine := NewEngine(DefaultThresholds())

	t.Run("ready recommends next level", func(t *testing.T) {
		rec := baseRecord()
		res := engine.Evaluate(rec, nil)
		if !res.ReadyToAdvance {
			t.Fatal("expected ready")
		}
		if res.RecommendedLevel != rec.Level+1 {
			t.Errorf("RecommendedLevel = %d, want %d", res.RecommendedLevel, rec.Level+1)
		}
		if res.RecommendedAction != ActionReadyForNextLevel {
			t.Errorf("RecommendedAction = %q, want %q", res.RecommendedAction, ActionReadyForNextLevel)
		}
	})

	t.Run("low accuracy needs practice", func(t *testing.T) {
		rec := baseRecord()
		rec.CorrectAttempts = 3 // 50%
		res := engine.Evaluate(rec, nil)
		if res.RecommendedAction != ActionNeedsMorePractice {
			t.Errorf("RecommendedAction = %q, want %q", res.RecommendedAction, ActionNeedsMorePractice)
		}
	})

	t.Run("borderline accuracy continues level", func(t *testing.T) {
		rec := baseRecord()
		rec.CorrectAttempts = 4 // 66.7%: above the practice floor, below ready
		res := engine.Evaluate(rec, nil)
		if res.ReadyToAdvance {
			t.Fatal("66.7%% accuracy should not be ready")
		}
		if res.RecommendedAction != ActionContinueCurrentLevel {
			t.Errorf("RecommendedAction = %q, want %q", res.RecommendedAction, ActionContinueCurrentLevel)
		}
	})
}

func TestImprovementTrend(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	attemptRun := func(results ...bool) []models.WordAttempt {
		attempts := make([]models.WordAttempt, len(results))
		for i, ok := range results {
			attempts[i] = models.WordAttempt{
				Word:      "word",
				Success:   ok,
				Timestamp: start.Add(time.Duration(i) * time.Minute),
			}
		}
		return attempts
	}

	tests := []struct {
		name     string
		attempts []models.WordAttempt
		want     Trend
	}{
		{"improving", attemptRun(false, false, false, true, true, true), TrendImproving},
		{"declining", attemptRun(true, true, true, false, false, false), TrendDeclining},
		{"stable", attemptRun(true, false, true, true, false, true), TrendStable},
		{"too few attempts", attemptRun(true, true, true, true, true), TrendStable},
		{"empty", nil, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.ImprovementTrend(tt.attempts); got != tt.want {
				t.Errorf("ImprovementTrend() = %q, want %q", got, tt.want)
			}
		})
	}
}
