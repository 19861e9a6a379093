package progression

import (
	"math"

	"github.com/myrjola/overload/internal/ptr"
)

// Calculator thresholds.
const (
	deloadEffortThreshold  = 9.0
	progressEffortCeiling  = 7.0
	defaultSuggestedReps   = 8
	plateauRepBumpSmall    = 1
	plateauRepBumpLarge    = 2
	plateauRepBumpCeiling  = 8
	variationRepsThreshold = 15
	alternativeSteps       = 2
)

// calculate applies the progression rule set, first match wins:
// insufficient data, deload, confirmed plateau, progress, hold. All weights
// are rounded to the equipment increment and reps stay integral.
func calculate(metrics TrendMetrics, analysis PlateauAnalysis, last *SessionSummary, cfg Config) Recommendation {
	cfg = cfg.withDefaults()

	lastWeight := cfg.BaselineWeightKg
	lastReps := defaultSuggestedReps
	if last != nil {
		lastWeight = topSetWeight(*last)
		if reps := typicalReps(*last); reps > 0 {
			lastReps = reps
		}
	}

	rec := applyRules(metrics, analysis, last, lastWeight, lastReps, cfg)

	rec.Status = analysis.Status
	rec.PlateauConfidence = analysis.PlateauConfidence
	rec.AverageEffort = metrics.AverageEffort
	if last != nil {
		// Snapshot by value so cached recommendations do not alias the
		// caller's history slice.
		rec.LastSession = ptr.Ref(*last)
	}
	rec.AlternativeWeightsKg = alternativeWeights(rec.SuggestedWeightKg, cfg.WeightIncrementKg)
	// A two-session trend is intentionally treated as low-confidence input.
	if metrics.PairwiseOnly {
		rec.Confidence = demote(rec.Confidence)
	}
	return rec
}

func applyRules(metrics TrendMetrics, analysis PlateauAnalysis, last *SessionSummary, lastWeight float64, lastReps int, cfg Config) Recommendation {
	switch {
	case analysis.Status == StatusInsufficientData || last == nil:
		return Recommendation{
			SuggestedWeightKg: roundToIncrement(lastWeight, cfg.WeightIncrementKg),
			SuggestedReps:     lastReps,
			IncreaseAmountKg:  0,
			Confidence:        ConfidenceLow,
		}

	case analysis.Status == StatusRegression ||
		(!last.AllSetsCompleted && last.AverageEffort >= deloadEffortThreshold):
		suggested := roundToIncrement(lastWeight*cfg.DeloadFactor, cfg.WeightIncrementKg)
		return Recommendation{
			SuggestedWeightKg: suggested,
			SuggestedReps:     lastReps,
			IncreaseAmountKg:  suggested - lastWeight,
			Confidence:        ConfidenceMedium,
		}

	case analysis.Status == StatusConfirmedPlateau:
		return plateauBreaker(lastWeight, lastReps, cfg)

	case analysis.Status == StatusProgressing &&
		last.AllSetsCompleted && last.AverageEffort <= progressEffortCeiling:
		suggested := roundToIncrement(lastWeight+cfg.WeightIncrementKg, cfg.WeightIncrementKg)
		return Recommendation{
			SuggestedWeightKg: suggested,
			SuggestedReps:     lastReps,
			IncreaseAmountKg:  suggested - lastWeight,
			Confidence:        ConfidenceHigh,
		}

	default:
		return Recommendation{
			SuggestedWeightKg: roundToIncrement(lastWeight, cfg.WeightIncrementKg),
			SuggestedReps:     lastReps,
			IncreaseAmountKg:  0,
			Confidence:        ConfidenceMedium,
		}
	}
}

// plateauBreaker recommends more reps at the same weight, or an exercise
// variation once the rep range is exhausted, instead of chasing a weight
// increase that has stopped working.
func plateauBreaker(lastWeight float64, lastReps int, cfg Config) Recommendation {
	rec := Recommendation{
		SuggestedWeightKg: roundToIncrement(lastWeight, cfg.WeightIncrementKg),
		IncreaseAmountKg:  0,
		Confidence:        ConfidenceMedium,
	}
	switch {
	case lastReps >= variationRepsThreshold:
		rec.SuggestedReps = lastReps
		rec.SuggestVariation = true
	case lastReps <= plateauRepBumpCeiling:
		rec.SuggestedReps = lastReps + plateauRepBumpLarge
	default:
		rec.SuggestedReps = lastReps + plateauRepBumpSmall
	}
	return rec
}

// typicalReps is the floor of the mean rep count over completed sets.
func typicalReps(summary SessionSummary) int {
	total, count := 0, 0
	for _, set := range summary.Sets {
		if set.Completed {
			total += set.Reps
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int(math.Floor(float64(total) / float64(count)))
}

// alternativeWeights surrounds the suggestion with one and two increment
// steps in both directions, dropping anything below zero, so the caller can
// offer manual overrides.
func alternativeWeights(suggested, increment float64) []float64 {
	alternatives := make([]float64, 0, 2*alternativeSteps)
	for step := -alternativeSteps; step <= alternativeSteps; step++ {
		if step == 0 {
			continue
		}
		weight := roundToIncrement(suggested+float64(step)*increment, increment)
		if weight < 0 {
			continue
		}
		alternatives = append(alternatives, weight)
	}
	return dedupeSorted(alternatives)
}

// dedupeSorted removes adjacent duplicates from an ascending slice, which
// clamping at zero can produce.
func dedupeSorted(weights []float64) []float64 {
	if len(weights) < 2 {
		return weights
	}
	out := weights[:1]
	for _, w := range weights[1:] {
		if w != out[len(out)-1] {
			out = append(out, w)
		}
	}
	return out
}

// roundToIncrement snaps a weight to the nearest valid equipment increment.
func roundToIncrement(weight, increment float64) float64 {
	if increment <= 0 {
		return weight
	}
	return math.Round(weight/increment) * increment
}

// demote lowers a confidence level by one tier.
func demote(level Confidence) Confidence {
	switch level {
	case ConfidenceHigh:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceLow
	default:
		return ConfidenceLow
	}
}
