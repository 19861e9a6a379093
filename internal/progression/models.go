// Package progression computes progressive-overload recommendations from
// historical exercise performance: trend analysis over a bounded recent
// window, plateau detection, rule-based weight/rep suggestions and an
// advisory mid-session autoregulation adjustment.
package progression

import (
	"time"

	"github.com/myrjola/overload/internal/errors"
)

// ErrInvalidRecord is returned when a set record carries malformed data
// (negative weight or reps, effort outside 1-10). Lack of history is never
// an error; it resolves to StatusInsufficientData.
var ErrInvalidRecord = errors.NewSentinel("invalid set record")

// Status classifies the training trajectory for an exercise.
type Status string

// Training status constants.
const (
	StatusInsufficientData Status = "insufficient_data"
	StatusProgressing      Status = "progressing"
	StatusPlateauCandidate Status = "plateau_candidate"
	StatusConfirmedPlateau Status = "confirmed_plateau"
	StatusRegression       Status = "regression"
)

// Confidence rates how much trust to place in a recommendation.
type Confidence string

// Confidence level constants.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SetRecord is a single logged set. Immutable once logged.
type SetRecord struct {
	WeightKg  float64 `json:"weight_kg"`
	Reps      int     `json:"reps"`
	Effort    float64 `json:"effort"`
	Completed bool    `json:"completed"`
}

// RawSession is one logged training session for an exercise, as supplied by
// the persistence layer before aggregation.
type RawSession struct {
	ID          int64
	PerformedAt time.Time
	Sets        []SetRecord
}

// SessionSummary is a derived per-session aggregate. TotalVolumeKg sums
// weight times reps over completed sets only.
type SessionSummary struct {
	SessionID        int64       `json:"session_id"`
	PerformedAt      time.Time   `json:"performed_at"`
	Sets             []SetRecord `json:"sets"`
	TotalVolumeKg    float64     `json:"total_volume_kg"`
	AverageEffort    float64     `json:"average_effort"`
	AllSetsCompleted bool        `json:"all_sets_completed"`
}

// ExerciseHistory is the aggregated input to the engine: session summaries
// ordered most-recent-first, capped at the configured window.
type ExerciseHistory struct {
	ExerciseID int64
	Sessions   []SessionSummary
}

// Latest returns the most recent session summary, or nil for empty history.
func (h ExerciseHistory) Latest() *SessionSummary {
	if len(h.Sessions) == 0 {
		return nil
	}
	return &h.Sessions[0]
}

// TrendMetrics holds rolling statistics over the recent window. Computed
// fresh per call, never persisted.
type TrendMetrics struct {
	// VolumeSlope is the least-squares slope of session volume against
	// chronological session index.
	VolumeSlope float64 `json:"volume_slope"`
	// EffortTrend is the average effort of the most recent two sessions
	// minus the preceding two. Positive means effort is rising.
	EffortTrend float64 `json:"effort_trend"`
	// ConsistencyScore is the fraction of the window with all sets
	// completed, in [0,1].
	ConsistencyScore float64 `json:"consistency_score"`
	// WeeksSinceIncrease is the elapsed time, in weeks, since the last
	// session whose top-set weight exceeded all prior top-set weights.
	WeeksSinceIncrease float64 `json:"weeks_since_increase"`
	// AverageEffort is the mean session effort over the window.
	AverageEffort float64 `json:"average_effort"`
	// InsufficientTrendData is set when fewer than two sessions were
	// usable for the slope.
	InsufficientTrendData bool `json:"insufficient_trend_data"`
	// PairwiseOnly is set when the slope degraded to a two-session delta.
	PairwiseOnly bool `json:"pairwise_only"`
}

// PlateauAnalysis is the plateau detector's verdict.
type PlateauAnalysis struct {
	Status Status `json:"status"`
	// PlateauConfidence is a 0-100 meter: 40% weight on the consecutive
	// non-improving session count, 30% on inverse consistency, 30% on
	// weeks since the last top-set increase.
	PlateauConfidence float64 `json:"plateau_confidence"`
	// NonImprovingStreak counts trailing sessions without a completed
	// volume or top-set weight improvement.
	NonImprovingStreak int `json:"non_improving_streak"`
}

// Recommendation is the engine's output: a concrete, explainable suggestion
// for the next session.
type Recommendation struct {
	ExerciseID           int64           `json:"exercise_id"`
	Status               Status          `json:"status"`
	PlateauConfidence    float64         `json:"plateau_confidence"`
	SuggestedWeightKg    float64         `json:"suggested_weight_kg"`
	SuggestedReps        int             `json:"suggested_reps"`
	IncreaseAmountKg     float64         `json:"increase_amount_kg"`
	AlternativeWeightsKg []float64       `json:"alternative_weights_kg"`
	Confidence           Confidence      `json:"confidence"`
	// SuggestVariation flags that an exercise variation is a better lever
	// than more reps at a confirmed plateau.
	SuggestVariation bool `json:"suggest_variation"`
	// AverageEffort carries the historical mean effort so that
	// autoregulation can measure overshoot without re-reading history.
	AverageEffort float64         `json:"average_effort"`
	LastSession   *SessionSummary `json:"last_session,omitempty"`
	Reasoning     string          `json:"reasoning"`
}

// Config holds the engine tunables. The zero value is not usable; start
// from DefaultConfig and override fields as needed. The thresholds are
// empirically chosen defaults, not domain laws.
type Config struct {
	// WindowSize caps how many recent sessions the aggregator retains.
	WindowSize int
	// TrendWindow caps how many sessions feed the slope computation.
	TrendWindow int
	// DeloadFactor scales the weight down when a deload triggers.
	DeloadFactor float64
	// WeightIncrementKg is the smallest equipment step, exercise-class
	// dependent and supplied by the caller's catalog.
	WeightIncrementKg float64
	// PlateauMinSessions is how long plateau-candidate conditions must
	// persist before a plateau is confirmed.
	PlateauMinSessions int
	// PlateauMinWeeks is the minimum weeks since a top-set increase
	// before a plateau is confirmed.
	PlateauMinWeeks int
	// EffortOvershootThreshold is how far above the historical average
	// the first live set's effort must land to trigger autoregulation.
	EffortOvershootThreshold float64
	// SlopeEpsilon is the band around zero within which a volume slope
	// counts as flat.
	SlopeEpsilon float64
	// BaselineWeightKg seeds the suggestion when no history exists.
	BaselineWeightKg float64
}

// Default configuration values.
const (
	DefaultWindowSize               = 12
	DefaultTrendWindow              = 6
	DefaultDeloadFactor             = 0.9
	DefaultWeightIncrementKg        = 2.5
	DefaultPlateauMinSessions       = 6
	DefaultPlateauMinWeeks          = 3
	DefaultEffortOvershootThreshold = 1.5
	DefaultSlopeEpsilon             = 1e-6
)

// DefaultConfig returns the standard tunables.
func DefaultConfig() Config {
	return Config{
		WindowSize:               DefaultWindowSize,
		TrendWindow:              DefaultTrendWindow,
		DeloadFactor:             DefaultDeloadFactor,
		WeightIncrementKg:        DefaultWeightIncrementKg,
		PlateauMinSessions:       DefaultPlateauMinSessions,
		PlateauMinWeeks:          DefaultPlateauMinWeeks,
		EffortOvershootThreshold: DefaultEffortOvershootThreshold,
		SlopeEpsilon:             DefaultSlopeEpsilon,
		BaselineWeightKg:         0,
	}
}

// withDefaults fills zero-valued tunables so partially populated configs
// behave like DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WindowSize <= 0 {
		c.WindowSize = def.WindowSize
	}
	if c.TrendWindow <= 0 {
		c.TrendWindow = def.TrendWindow
	}
	if c.DeloadFactor <= 0 {
		c.DeloadFactor = def.DeloadFactor
	}
	if c.WeightIncrementKg <= 0 {
		c.WeightIncrementKg = def.WeightIncrementKg
	}
	if c.PlateauMinSessions <= 0 {
		c.PlateauMinSessions = def.PlateauMinSessions
	}
	if c.PlateauMinWeeks <= 0 {
		c.PlateauMinWeeks = def.PlateauMinWeeks
	}
	if c.EffortOvershootThreshold <= 0 {
		c.EffortOvershootThreshold = def.EffortOvershootThreshold
	}
	if c.SlopeEpsilon <= 0 {
		c.SlopeEpsilon = def.SlopeEpsilon
	}
	return c
}
