package progression

import (
	"fmt"
	"strings"
)

// buildReasoning renders a short explanation citing only numbers present in
// the inputs. It is deterministic: identical inputs always produce the
// identical string.
func buildReasoning(metrics TrendMetrics, analysis PlateauAnalysis, last *SessionSummary, rec Recommendation) string {
	var b strings.Builder

	if last != nil {
		b.WriteString(describeLastSession(*last))
		b.WriteString(" → ")
	}
	b.WriteString(string(analysis.Status))
	b.WriteString(". ")

	if metrics.InsufficientTrendData {
		b.WriteString("Not enough sessions to establish a trend; ")
	} else {
		fmt.Fprintf(&b, "Volume slope %+.1f over the recent window, consistency %.0f%%; ",
			metrics.VolumeSlope, metrics.ConsistencyScore*100)
	}

	b.WriteString(describeAction(analysis, rec))
	return b.String()
}

// describeLastSession summarizes the last session in the compact
// sets×reps @ weight form.
func describeLastSession(last SessionSummary) string {
	completion := "all sets completed"
	if !last.AllSetsCompleted {
		completion = "not all sets completed"
	}
	return fmt.Sprintf("Last session: %s, RPE %.1f avg, %s",
		describeSets(last.Sets), last.AverageEffort, completion)
}

func describeSets(sets []SetRecord) string {
	if len(sets) == 0 {
		return "no sets"
	}
	// Compact form when every set matches the first one.
	uniform := true
	for _, set := range sets[1:] {
		if set.Reps != sets[0].Reps || set.WeightKg != sets[0].WeightKg {
			uniform = false
			break
		}
	}
	if uniform {
		return fmt.Sprintf("%d×%d @ %.1fkg", len(sets), sets[0].Reps, sets[0].WeightKg)
	}

	parts := make([]string, 0, len(sets))
	for _, set := range sets {
		parts = append(parts, fmt.Sprintf("%d @ %.1fkg", set.Reps, set.WeightKg))
	}
	return strings.Join(parts, ", ")
}

// autoregulationReasoning explains a mid-session back-off with the numbers
// that triggered it.
func autoregulationReasoning(liveEffort, historicalAverage, suggested, reduction float64) string {
	return fmt.Sprintf(
		"First set RPE %.1f vs %.1f historical average; backing off %.1fkg to %.1fkg for the remaining sets.",
		liveEffort, historicalAverage, reduction, suggested)
}

func describeAction(analysis PlateauAnalysis, rec Recommendation) string {
	switch {
	case rec.Status == StatusInsufficientData:
		return fmt.Sprintf("holding at %.1fkg until more sessions are logged.", rec.SuggestedWeightKg)
	case rec.IncreaseAmountKg < 0:
		return fmt.Sprintf("deloading to %.1fkg (%.1fkg) to recover.",
			rec.SuggestedWeightKg, rec.IncreaseAmountKg)
	case rec.SuggestVariation:
		return fmt.Sprintf("plateau confidence %.0f/100: consider an exercise variation at %.1fkg.",
			analysis.PlateauConfidence, rec.SuggestedWeightKg)
	case rec.Status == StatusConfirmedPlateau:
		return fmt.Sprintf("plateau confidence %.0f/100: keep %.1fkg and work up to %d reps.",
			analysis.PlateauConfidence, rec.SuggestedWeightKg, rec.SuggestedReps)
	case rec.IncreaseAmountKg > 0:
		return fmt.Sprintf("increasing to %.1fkg (+%.1fkg).",
			rec.SuggestedWeightKg, rec.IncreaseAmountKg)
	default:
		return fmt.Sprintf("holding at %.1fkg.", rec.SuggestedWeightKg)
	}
}
