package assessment

import (
	"sort"

	"wordbuilder/internal/models"
)

// Action is the pedagogical recommendation attached to a progress read.
type Action string

const (
	ActionReadyForNextLevel    Action = "ready_for_next_level"
	ActionNeedsMorePractice    Action = "needs_more_practice"
	ActionFocusOnErrorPatterns Action = "focus_on_error_patterns"
	ActionContinueCurrentLevel Action = "continue_current_level"
)

// Trend describes the direction of a learner's recent results.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Thresholds holds the advancement criteria. All must be met for a learner
// to be ready for the next level.
type Thresholds struct {
	MinAccuracy        float64 // fraction correct, 0.0-1.0
	MinAttempts        int     // minimum sample size
	MaxSecondsPerWord  int     // efficiency gate, not just accuracy
	MaxErrorPatterns   int     // distinct systematic errors tolerated
	LowAccuracy        float64 // below this, recommend more practice
	trendWindow        int
}

// DefaultThresholds returns the standard advancement criteria.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAccuracy:       0.80,
		MinAttempts:       5,
		MaxSecondsPerWord: 60,
		MaxErrorPatterns:  1,
		LowAccuracy:       0.60,
		trendWindow:       3,
	}
}

// Result is the engine's full output for one (session, level) record.
type Result struct {
	ReadyToAdvance        bool
	RecommendedLevel      int
	RecommendedAction     Action
	ImprovementTrend      Trend
	DistinctErrorPatterns int
}

// Engine decides level-progression readiness from aggregated progress and
// the error patterns observed in recent attempts. It is a plain value
// constructed once and injected wherever reads are served.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// Evaluate computes readiness, the recommended action, and the improvement
// trend for a record and the recent attempts at its level.
func (e *Engine) Evaluate(rec *models.ProgressRecord, recentAttempts []models.WordAttempt) Result {
	patterns := distinctErrorPatterns(recentAttempts)
	ready := e.isReady(rec, patterns)

	res := Result{
		ReadyToAdvance:        ready,
		RecommendedLevel:      rec.Level,
		ImprovementTrend:      e.ImprovementTrend(recentAttempts),
		DistinctErrorPatterns: patterns,
	}

	switch {
	case ready:
		res.RecommendedLevel = rec.Level + 1
		res.RecommendedAction = ActionReadyForNextLevel
	case rec.Accuracy() < e.thresholds.LowAccuracy:
		res.RecommendedAction = ActionNeedsMorePractice
	case patterns > e.thresholds.MaxErrorPatterns:
		res.RecommendedAction = ActionFocusOnErrorPatterns
	default:
		res.RecommendedAction = ActionContinueCurrentLevel
	}
	return res
}

// IsReadyToAdvance reports whether the learner has met every advancement
// criterion for this record's level.
func (e *Engine) IsReadyToAdvance(rec *models.ProgressRecord, recentAttempts []models.WordAttempt) bool {
	return e.isReady(rec, distinctErrorPatterns(recentAttempts))
}

func (e *Engine) isReady(rec *models.ProgressRecord, patterns int) bool {
	if rec.TotalAttempts == 0 {
		return false
	}
	if rec.Accuracy() < e.thresholds.MinAccuracy {
		return false
	}
	if rec.TotalAttempts < e.thresholds.MinAttempts {
		return false
	}
	if rec.WordsCompleted <= 0 {
		return false
	}
	perWord := float64(rec.TimeSpentSeconds) / float64(max(rec.WordsCompleted, 1))
	if perWord > float64(e.thresholds.MaxSecondsPerWord) {
		return false
	}
	return patterns <= e.thresholds.MaxErrorPatterns
}

// ImprovementTrend compares success counts in the most recent attempts
// against the window before them. Fewer than two full windows of data reads
// as stable.
func (e *Engine) ImprovementTrend(attempts []models.WordAttempt) Trend {
	w := e.thresholds.trendWindow
	if len(attempts) < 2*w {
		return TrendStable
	}

	ordered := make([]models.WordAttempt, len(attempts))
	copy(ordered, attempts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	recent := successCount(ordered[len(ordered)-w:])
	previous := successCount(ordered[len(ordered)-2*w : len(ordered)-w])

	switch {
	case recent > previous:
		return TrendImproving
	case recent < previous:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func successCount(attempts []models.WordAttempt) int {
	n := 0
	for _, a := range attempts {
		if a.Success {
			n++
		}
	}
	return n
}

// distinctErrorPatterns counts the categorical error tags observed across
// the attempts. Successful attempts and untagged failures don't contribute.
func distinctErrorPatterns(attempts []models.WordAttempt) int {
	seen := make(map[string]bool)
	for _, a := range attempts {
		if a.Success || a.ErrorPattern == "" {
			continue
		}
		seen[a.ErrorPattern] = true
	}
	return len(seen)
}
