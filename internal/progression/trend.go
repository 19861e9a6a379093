package progression

const (
	hoursPerWeek     = 24 * 7
	effortTrendSpan  = 2
	minSlopeSessions = 2
)

// analyzeTrend computes TrendMetrics over the most recent
// min(cfg.TrendWindow, len(sessions)) sessions. All divide-by-zero edge
// cases resolve to neutral defaults (slope 0, consistency 1) instead of
// erroring.
func analyzeTrend(history ExerciseHistory, cfg Config) TrendMetrics {
	cfg = cfg.withDefaults()

	window := history.Sessions
	if len(window) > cfg.TrendWindow {
		window = window[:cfg.TrendWindow]
	}
	chronological := reverseSessions(window)

	metrics := TrendMetrics{
		VolumeSlope:           0,
		EffortTrend:           effortTrend(chronological),
		ConsistencyScore:      consistencyScore(chronological),
		WeeksSinceIncrease:    weeksSinceIncrease(history.Sessions),
		AverageEffort:         averageEffort(chronological),
		InsufficientTrendData: len(chronological) < minSlopeSessions,
		PairwiseOnly:          len(chronological) == minSlopeSessions,
	}
	if !metrics.InsufficientTrendData {
		metrics.VolumeSlope = volumeSlope(chronological)
	}
	return metrics
}

// volumeSlope fits session volume against chronological index with least
// squares. Two sessions degrade to the pairwise delta, which the caller
// treats as low-confidence input.
func volumeSlope(chronological []SessionSummary) float64 {
	n := len(chronological)
	if n < minSlopeSessions {
		return 0
	}
	if n == minSlopeSessions {
		return chronological[1].TotalVolumeKg - chronological[0].TotalVolumeKg
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, session := range chronological {
		x := float64(i)
		y := session.TotalVolumeKg
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denominator := nf*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (nf*sumXY - sumX*sumY) / denominator
}

// effortTrend is the average effort of the most recent two sessions minus
// the preceding two. Positive means effort is rising at constant or lower
// load, a fatigue signal. Shorter histories resolve to zero.
func effortTrend(chronological []SessionSummary) float64 {
	if len(chronological) < 2*effortTrendSpan {
		return 0
	}
	recent := chronological[len(chronological)-effortTrendSpan:]
	prior := chronological[len(chronological)-2*effortTrendSpan : len(chronological)-effortTrendSpan]
	return meanSessionEffort(recent) - meanSessionEffort(prior)
}

func meanSessionEffort(sessions []SessionSummary) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, session := range sessions {
		sum += session.AverageEffort
	}
	return sum / float64(len(sessions))
}

// consistencyScore is the fraction of the window with all sets completed.
// An empty window resolves to 1 so that the score never penalizes missing
// data.
func consistencyScore(sessions []SessionSummary) float64 {
	if len(sessions) == 0 {
		return 1
	}
	completed := 0
	for _, session := range sessions {
		if session.AllSetsCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(sessions))
}

func averageEffort(sessions []SessionSummary) float64 {
	return meanSessionEffort(sessions)
}

// weeksSinceIncrease measures elapsed calendar time between the most recent
// session and the last session whose top-set weight exceeded every prior
// top-set weight. Elapsed time is taken from session timestamps rather than
// the wall clock so identical histories always yield identical metrics.
func weeksSinceIncrease(mostRecentFirst []SessionSummary) float64 {
	if len(mostRecentFirst) == 0 {
		return 0
	}
	chronological := reverseSessions(mostRecentFirst)

	var (
		runningMax   float64
		lastIncrease = chronological[0].PerformedAt
	)
	for i, session := range chronological {
		top := topSetWeight(session)
		if i == 0 || top > runningMax {
			lastIncrease = session.PerformedAt
		}
		if top > runningMax {
			runningMax = top
		}
	}

	latest := chronological[len(chronological)-1].PerformedAt
	elapsed := latest.Sub(lastIncrease)
	if elapsed < 0 {
		return 0
	}
	return elapsed.Hours() / hoursPerWeek
}

// reverseSessions returns a chronological (oldest-first) copy of a
// most-recent-first slice.
func reverseSessions(mostRecentFirst []SessionSummary) []SessionSummary {
	chronological := make([]SessionSummary, len(mostRecentFirst))
	for i, session := range mostRecentFirst {
		chronological[len(mostRecentFirst)-1-i] = session
	}
	return chronological
}
