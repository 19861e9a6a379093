package progression

import (
	"log/slog"
	"math"
	"time"

	"github.com/myrjola/overload/internal/errors"
)

// Autoregulation back-off limits.
const (
	maxBackoffIncrements = 2
	weightTolerance      = 1e-6
)

// Recommend computes a progression recommendation from aggregated history.
// It is a pure function: no I/O, no clock, no shared state, so identical
// history and config always yield identical output.
func Recommend(history ExerciseHistory, cfg Config) Recommendation {
	cfg = cfg.withDefaults()

	metrics := analyzeTrend(history, cfg)
	analysis := detectPlateau(history, metrics, cfg)
	rec := calculate(metrics, analysis, history.Latest(), cfg)
	rec.ExerciseID = history.ExerciseID
	rec.Reasoning = buildReasoning(metrics, analysis, history.Latest(), rec)
	return rec
}

// Autoregulate re-scales a recommendation mid-session from the sets already
// logged in the current session. When the first set's effort at the
// suggested weight overshoots the historical average by more than the
// configured threshold, it returns a reduced session-scoped suggestion with
// linear back-off proportional to the overshoot, capped at two increments.
// The adjustment is advisory: the original recommendation is never
// modified, and when no adjustment applies the original is returned as is.
func Autoregulate(rec Recommendation, currentSets []SetRecord, cfg Config) (Recommendation, error) {
	cfg = cfg.withDefaults()

	for i, set := range currentSets {
		if err := validateSet(set); err != nil {
			return rec, errors.Wrap(err, "validate live set", slog.Int("set_number", i+1))
		}
	}
	if len(currentSets) == 0 {
		return rec, nil
	}

	first := currentSets[0]
	if math.Abs(first.WeightKg-rec.SuggestedWeightKg) > weightTolerance {
		// The lifter deviated from the suggestion; overshoot at a
		// different weight says nothing about the suggested load.
		return rec, nil
	}

	overshoot := first.Effort - rec.AverageEffort
	if overshoot <= cfg.EffortOvershootThreshold {
		return rec, nil
	}

	steps := overshoot / cfg.EffortOvershootThreshold
	if steps > maxBackoffIncrements {
		steps = maxBackoffIncrements
	}
	reduction := roundToIncrement(steps*cfg.WeightIncrementKg, cfg.WeightIncrementKg)
	if limit := maxBackoffIncrements * cfg.WeightIncrementKg; reduction > limit {
		reduction = limit
	}

	suggested := rec.SuggestedWeightKg - reduction
	if suggested < 0 {
		suggested = 0
	}
	suggested = roundToIncrement(suggested, cfg.WeightIncrementKg)
	lastWeight := rec.SuggestedWeightKg - rec.IncreaseAmountKg

	adjusted := rec
	adjusted.SuggestedWeightKg = suggested
	adjusted.IncreaseAmountKg = suggested - lastWeight
	adjusted.AlternativeWeightsKg = alternativeWeights(suggested, cfg.WeightIncrementKg)
	adjusted.Reasoning = autoregulationReasoning(first.Effort, rec.AverageEffort, suggested, reduction)
	return adjusted, nil
}

// Engine wraps the pure computation with an optional memoization layer.
// Results are a pure function of history, so a cached entry can only be
// stale, never wrong; it is keyed by the latest session so logging a newer
// session bypasses it naturally.
type Engine struct {
	cache *memoCache
}

// DefaultCacheTTL bounds staleness of memoized recommendations.
const DefaultCacheTTL = 5 * time.Minute

// NewEngine constructs an engine. A non-positive TTL disables memoization.
func NewEngine(cacheTTL time.Duration) *Engine {
	var cache *memoCache
	if cacheTTL > 0 {
		cache = newMemoCache(cacheTTL)
	}
	return &Engine{cache: cache}
}

// Recommend is Recommend with memoization keyed by (exercise, latest
// session, increment).
func (e *Engine) Recommend(history ExerciseHistory, cfg Config) Recommendation {
	cfg = cfg.withDefaults()

	latest := history.Latest()
	if e.cache == nil || latest == nil {
		return Recommend(history, cfg)
	}

	key := memoKey{
		exerciseID:  history.ExerciseID,
		sessionID:   latest.SessionID,
		incrementKg: cfg.WeightIncrementKg,
	}
	if rec, ok := e.cache.get(key); ok {
		return rec
	}
	rec := Recommend(history, cfg)
	e.cache.put(key, rec)
	return rec
}

// Invalidate drops memoized recommendations for an exercise. Call it when
// a new session is logged.
func (e *Engine) Invalidate(exerciseID int64) {
	if e.cache != nil {
		e.cache.invalidate(exerciseID)
	}
}
