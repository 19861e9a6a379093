package progression

// Status classification thresholds.
const (
	minStatusSessions         = 3
	plateauCandidateStreak    = 3
	regressionStreak          = 2
	progressingMinConsistency = 0.8
	regressionMaxConsistency  = 0.5

	// Plateau-confidence weighting.
	streakWeight      = 40.0
	consistencyWeight = 30.0
	staleWeight       = 30.0
)

// detectPlateau classifies the training status and scores plateau
// confidence. The detector is stateless: every call recomputes from the
// supplied history, so all memory lives in the history itself.
func detectPlateau(history ExerciseHistory, metrics TrendMetrics, cfg Config) PlateauAnalysis {
	cfg = cfg.withDefaults()

	streak := nonImprovingStreak(history.Sessions)
	analysis := PlateauAnalysis{
		Status:             classifyStatus(history, metrics, cfg),
		PlateauConfidence:  plateauConfidence(streak, metrics, cfg),
		NonImprovingStreak: streak,
	}
	return analysis
}

// classifyStatus applies the status state machine. Regression outranks
// plateau states, a confirmed plateau outranks a candidate, and anything
// ambiguous lands on plateau_candidate so the calculator holds the load.
func classifyStatus(history ExerciseHistory, metrics TrendMetrics, cfg Config) Status {
	if len(history.Sessions) < minStatusSessions {
		return StatusInsufficientData
	}

	flat, negative := slopeStreaks(history, cfg)

	switch {
	case negative >= regressionStreak || metrics.ConsistencyScore < regressionMaxConsistency:
		return StatusRegression
	case flat >= cfg.PlateauMinSessions && metrics.WeeksSinceIncrease >= float64(cfg.PlateauMinWeeks):
		return StatusConfirmedPlateau
	case flat >= plateauCandidateStreak ||
		(metrics.ConsistencyScore >= regressionMaxConsistency &&
			metrics.ConsistencyScore < progressingMinConsistency):
		return StatusPlateauCandidate
	case metrics.VolumeSlope > cfg.SlopeEpsilon && metrics.ConsistencyScore >= progressingMinConsistency:
		return StatusProgressing
	default:
		return StatusPlateauCandidate
	}
}

// slopeStreaks counts how many consecutive recent sessions had a flat
// (within epsilon) or negative rolling volume slope. The rolling slope at a
// session is computed over the trend window ending at that session; a
// session needs at least one predecessor to carry a slope.
func slopeStreaks(history ExerciseHistory, cfg Config) (flat, negative int) {
	chronological := reverseSessions(history.Sessions)

	flatBroken, negativeBroken := false, false
	for end := len(chronological) - 1; end >= 1; end-- {
		start := end - cfg.TrendWindow + 1
		if start < 0 {
			start = 0
		}
		slope := volumeSlope(chronological[start : end+1])

		isFlat := slope >= -cfg.SlopeEpsilon && slope <= cfg.SlopeEpsilon
		isNegative := slope < -cfg.SlopeEpsilon

		if isFlat && !flatBroken {
			flat++
		} else {
			flatBroken = true
		}
		if isNegative && !negativeBroken {
			negative++
		} else {
			negativeBroken = true
		}
		if flatBroken && negativeBroken {
			break
		}
	}
	return flat, negative
}

// nonImprovingStreak counts trailing sessions that did not beat the
// previous session's volume or top-set weight with full completion. A
// completed personal-record session breaks the streak, which is what makes
// the confidence meter reset after real progress.
func nonImprovingStreak(mostRecentFirst []SessionSummary) int {
	chronological := reverseSessions(mostRecentFirst)

	streak := 0
	for i := len(chronological) - 1; i >= 1; i-- {
		if sessionImproved(chronological[i-1], chronological[i]) {
			break
		}
		streak++
	}
	return streak
}

// sessionImproved reports whether current beat previous on volume or
// top-set weight while completing every set.
func sessionImproved(previous, current SessionSummary) bool {
	if !current.AllSetsCompleted {
		return false
	}
	return current.TotalVolumeKg > previous.TotalVolumeKg ||
		topSetWeight(current) > topSetWeight(previous)
}

// plateauConfidence is the weighted 0-100 score: the non-improving streak
// capped at the confirmation threshold, inverse consistency, and staleness
// of the last top-set increase capped at the confirmation age.
func plateauConfidence(streak int, metrics TrendMetrics, cfg Config) float64 {
	streakRatio := capRatio(float64(streak), float64(cfg.PlateauMinSessions))
	staleRatio := capRatio(metrics.WeeksSinceIncrease, float64(cfg.PlateauMinWeeks))

	inconsistency := 1 - metrics.ConsistencyScore
	if inconsistency < 0 {
		inconsistency = 0
	}

	score := streakWeight*streakRatio + consistencyWeight*inconsistency + staleWeight*staleRatio
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func capRatio(value, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	ratio := value / limit
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}
