package progression

import (
	"log/slog"
	"sort"

	"github.com/myrjola/overload/internal/errors"
)

// Effort bounds for a valid set record.
const (
	minEffort = 1.0
	maxEffort = 10.0
)

// Aggregate normalizes raw per-set logs into an ExerciseHistory ordered
// most-recent-first and capped at cfg.WindowSize sessions. Older sessions
// are dropped to bound trend computation and avoid stale-data bias.
// Sessions with zero completed sets are retained with zero volume and
// AllSetsCompleted false. Malformed sets fail with ErrInvalidRecord rather
// than being clamped, so data-entry bugs surface upstream.
func Aggregate(exerciseID int64, raw []RawSession, cfg Config) (ExerciseHistory, error) {
	cfg = cfg.withDefaults()

	summaries := make([]SessionSummary, 0, len(raw))
	for _, session := range raw {
		summary, err := summarizeSession(session)
		if err != nil {
			return ExerciseHistory{}, errors.Wrap(err, "summarize session",
				slog.Int64("session_id", session.ID))
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].PerformedAt.After(summaries[j].PerformedAt)
	})

	if len(summaries) > cfg.WindowSize {
		summaries = summaries[:cfg.WindowSize]
	}

	return ExerciseHistory{
		ExerciseID: exerciseID,
		Sessions:   summaries,
	}, nil
}

// summarizeSession validates every set and derives the per-session
// aggregates.
func summarizeSession(session RawSession) (SessionSummary, error) {
	var (
		volume       float64
		effortSum    float64
		allCompleted = len(session.Sets) > 0
	)
	for i, set := range session.Sets {
		if err := validateSet(set); err != nil {
			return SessionSummary{}, errors.Wrap(err, "validate set",
				slog.Int("set_number", i+1))
		}
		if set.Completed {
			volume += set.WeightKg * float64(set.Reps)
		} else {
			allCompleted = false
		}
		effortSum += set.Effort
	}

	averageEffort := 0.0
	if len(session.Sets) > 0 {
		averageEffort = effortSum / float64(len(session.Sets))
	}

	return SessionSummary{
		SessionID:        session.ID,
		PerformedAt:      session.PerformedAt,
		Sets:             session.Sets,
		TotalVolumeKg:    volume,
		AverageEffort:    averageEffort,
		AllSetsCompleted: allCompleted,
	}, nil
}

// validateSet rejects negative weights or reps and out-of-range effort.
func validateSet(set SetRecord) error {
	if set.WeightKg < 0 {
		return errors.Wrap(ErrInvalidRecord, "negative weight",
			slog.Float64("weight_kg", set.WeightKg))
	}
	if set.Reps < 0 {
		return errors.Wrap(ErrInvalidRecord, "negative reps",
			slog.Int("reps", set.Reps))
	}
	if set.Effort < minEffort || set.Effort > maxEffort {
		return errors.Wrap(ErrInvalidRecord, "effort out of range",
			slog.Float64("effort", set.Effort))
	}
	return nil
}

// topSetWeight returns the heaviest completed set of the session, falling
// back to the heaviest logged set when nothing was completed.
func topSetWeight(summary SessionSummary) float64 {
	var topCompleted, topAny float64
	anyCompleted := false
	for _, set := range summary.Sets {
		if set.WeightKg > topAny {
			topAny = set.WeightKg
		}
		if set.Completed && set.WeightKg > topCompleted {
			topCompleted = set.WeightKg
			anyCompleted = true
		}
	}
	if anyCompleted {
		return topCompleted
	}
	return topAny
}
