package progression_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/progression"
)

var base = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

// session builds a session of three identical sets logged the given number
// of weeks after the base date.
func session(id int64, week int, weight float64, reps int, effort float64, completed bool) progression.RawSession {
	set := progression.SetRecord{WeightKg: weight, Reps: reps, Effort: effort, Completed: completed}
	return progression.RawSession{
		ID:          id,
		PerformedAt: base.AddDate(0, 0, 7*week),
		Sets:        []progression.SetRecord{set, set, set},
	}
}

func recommend(t *testing.T, raw []progression.RawSession, cfg progression.Config) progression.Recommendation {
	t.Helper()
	history, err := progression.Aggregate(1, raw, cfg)
	if err != nil {
		t.Fatalf("Aggregate returned unexpected error: %v", err)
	}
	return progression.Recommend(history, cfg)
}

func TestRecommendEmptyHistory(t *testing.T) {
	t.Parallel()
	cfg := progression.DefaultConfig()
	cfg.BaselineWeightKg = 20

	rec := recommend(t, nil, cfg)

	if rec.Status != progression.StatusInsufficientData {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusInsufficientData)
	}
	if rec.IncreaseAmountKg != 0 {
		t.Errorf("IncreaseAmountKg = %v, want 0", rec.IncreaseAmountKg)
	}
	if rec.SuggestedWeightKg != 20 {
		t.Errorf("SuggestedWeightKg = %v, want the caller-supplied baseline 20", rec.SuggestedWeightKg)
	}
	if rec.Confidence != progression.ConfidenceLow {
		t.Errorf("Confidence = %s, want %s", rec.Confidence, progression.ConfidenceLow)
	}
}

// A single logged session cannot carry a trend: the engine must hold the
// last known weight on the low-confidence path.
func TestRecommendSingleSession(t *testing.T) {
	t.Parallel()
	raw := []progression.RawSession{
		{
			ID:          1,
			PerformedAt: base,
			Sets: []progression.SetRecord{
				{WeightKg: 20, Reps: 10, Effort: 6, Completed: true},
			},
		},
	}

	rec := recommend(t, raw, progression.DefaultConfig())

	if rec.Status != progression.StatusInsufficientData {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusInsufficientData)
	}
	if rec.SuggestedWeightKg != 20 {
		t.Errorf("SuggestedWeightKg = %v, want 20", rec.SuggestedWeightKg)
	}
	if rec.IncreaseAmountKg != 0 {
		t.Errorf("IncreaseAmountKg = %v, want 0", rec.IncreaseAmountKg)
	}
	if rec.Confidence != progression.ConfidenceLow {
		t.Errorf("Confidence = %s, want %s", rec.Confidence, progression.ConfidenceLow)
	}
}

// Strictly increasing volume with full completion and moderate effort must
// always produce a positive increase.
func TestRecommendProgressing(t *testing.T) {
	t.Parallel()
	raw := []progression.RawSession{
		session(1, 0, 40, 10, 6, true),
		session(2, 1, 42.5, 10, 6, true),
		session(3, 2, 45, 10, 6, true),
		session(4, 3, 47.5, 10, 6, true),
		session(5, 4, 50, 10, 6, true),
	}

	rec := recommend(t, raw, progression.DefaultConfig())

	if rec.Status != progression.StatusProgressing {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusProgressing)
	}
	if rec.IncreaseAmountKg <= 0 {
		t.Errorf("IncreaseAmountKg = %v, want > 0", rec.IncreaseAmountKg)
	}
	if rec.SuggestedWeightKg != 52.5 {
		t.Errorf("SuggestedWeightKg = %v, want 52.5", rec.SuggestedWeightKg)
	}
	if rec.Confidence != progression.ConfidenceHigh {
		t.Errorf("Confidence = %s, want %s", rec.Confidence, progression.ConfidenceHigh)
	}
}

// Six flat sessions form a plateau candidate but not yet a confirmed
// plateau.
func TestRecommendFlatHistory(t *testing.T) {
	t.Parallel()
	raw := make([]progression.RawSession, 0, 6)
	for week := range 6 {
		raw = append(raw, session(int64(week+1), week, 42.5, 10, 7, true))
	}

	rec := recommend(t, raw, progression.DefaultConfig())

	if rec.Status != progression.StatusPlateauCandidate {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusPlateauCandidate)
	}
	if rec.IncreaseAmountKg != 0 {
		t.Errorf("IncreaseAmountKg = %v, want 0", rec.IncreaseAmountKg)
	}
	if rec.SuggestedWeightKg != 42.5 {
		t.Errorf("SuggestedWeightKg = %v, want 42.5", rec.SuggestedWeightKg)
	}
}

// A failed high-effort session triggers a deload regardless of the prior
// trend.
func TestRecommendDeload(t *testing.T) {
	t.Parallel()
	raw := []progression.RawSession{
		session(1, 0, 40, 10, 6, true),
		session(2, 1, 42.5, 10, 6, true),
		session(3, 2, 45, 10, 6, true),
		session(4, 3, 47.5, 10, 7, true),
		session(5, 4, 50, 10, 9.5, false),
	}

	rec := recommend(t, raw, progression.DefaultConfig())

	want := 45.0 // round(50 × 0.9, 2.5)
	if rec.SuggestedWeightKg != want {
		t.Errorf("SuggestedWeightKg = %v, want %v", rec.SuggestedWeightKg, want)
	}
	if rec.IncreaseAmountKg >= 0 {
		t.Errorf("IncreaseAmountKg = %v, want < 0", rec.IncreaseAmountKg)
	}
	if rec.Confidence != progression.ConfidenceMedium {
		t.Errorf("Confidence = %s, want %s", rec.Confidence, progression.ConfidenceMedium)
	}
}

// A confirmed plateau recommends more reps at the same weight instead of a
// weight increase.
func TestRecommendConfirmedPlateau(t *testing.T) {
	t.Parallel()
	raw := make([]progression.RawSession, 0, 9)
	for week := range 9 {
		raw = append(raw, session(int64(week+1), week, 42.5, 10, 8, true))
	}

	rec := recommend(t, raw, progression.DefaultConfig())

	if rec.Status != progression.StatusConfirmedPlateau {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusConfirmedPlateau)
	}
	if rec.SuggestedWeightKg != 42.5 {
		t.Errorf("SuggestedWeightKg = %v, want the same weight 42.5", rec.SuggestedWeightKg)
	}
	if rec.SuggestedReps <= 10 {
		t.Errorf("SuggestedReps = %d, want more than the current 10", rec.SuggestedReps)
	}
	if rec.IncreaseAmountKg != 0 {
		t.Errorf("IncreaseAmountKg = %v, want 0", rec.IncreaseAmountKg)
	}
}

func TestRecommendIdempotent(t *testing.T) {
	t.Parallel()
	raw := []progression.RawSession{
		session(1, 0, 40, 10, 6, true),
		session(2, 1, 42.5, 10, 7, false),
		session(3, 2, 42.5, 10, 8, true),
		session(4, 3, 42.5, 10, 8, true),
	}
	cfg := progression.DefaultConfig()

	first := recommend(t, raw, cfg)
	second := recommend(t, raw, cfg)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated recommendation mismatch (-first +second):\n%s", diff)
	}

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(firstJSON) != string(secondJSON) {
		t.Error("repeated recommendation serialized differently")
	}
}

// Every suggested weight must land on the equipment increment.
func TestRecommendRoundingLaw(t *testing.T) {
	t.Parallel()
	histories := [][]progression.RawSession{
		nil,
		{session(1, 0, 41.3, 10, 6, true)},
		{
			session(1, 0, 40, 10, 6, true),
			session(2, 1, 43.7, 9, 6, true),
			session(3, 2, 47.1, 8, 6, true),
			session(4, 3, 51.3, 8, 6, true),
		},
		{
			session(1, 0, 61.2, 10, 9, true),
			session(2, 1, 58.8, 10, 9.5, false),
			session(3, 2, 55.1, 10, 9.5, false),
		},
	}

	for _, increment := range []float64{1.25, 2.5, 5} {
		cfg := progression.DefaultConfig()
		cfg.WeightIncrementKg = increment
		for _, raw := range histories {
			rec := recommend(t, raw, cfg)
			assertOnIncrement(t, rec.SuggestedWeightKg, increment)
			for _, alternative := range rec.AlternativeWeightsKg {
				assertOnIncrement(t, alternative, increment)
			}
		}
	}
}

func assertOnIncrement(t *testing.T, weight, increment float64) {
	t.Helper()
	remainder := math.Mod(weight, increment)
	if math.Min(remainder, increment-remainder) > 1e-6 {
		t.Errorf("weight %v is not a multiple of increment %v", weight, increment)
	}
}

// A two-session trend window is low-confidence input and drops the
// confidence one tier.
func TestRecommendPairwiseTrendLowersConfidence(t *testing.T) {
	t.Parallel()
	cfg := progression.DefaultConfig()
	cfg.TrendWindow = 2

	raw := []progression.RawSession{
		session(1, 0, 40, 10, 6, true),
		session(2, 1, 42.5, 10, 6, true),
		session(3, 2, 45, 10, 6, true),
		session(4, 3, 47.5, 10, 6, true),
	}

	rec := recommend(t, raw, cfg)

	if rec.Status != progression.StatusProgressing {
		t.Fatalf("Status = %s, want %s", rec.Status, progression.StatusProgressing)
	}
	if rec.Confidence != progression.ConfidenceMedium {
		t.Errorf("Confidence = %s, want %s after the pairwise demotion",
			rec.Confidence, progression.ConfidenceMedium)
	}
}

func TestRecommendAlternativeWeights(t *testing.T) {
	t.Parallel()
	raw := []progression.RawSession{
		session(1, 0, 40, 10, 6, true),
		session(2, 1, 42.5, 10, 6, true),
		session(3, 2, 45, 10, 6, true),
		session(4, 3, 47.5, 10, 6, true),
	}

	rec := recommend(t, raw, progression.DefaultConfig())

	want := []float64{45, 47.5, 52.5, 55}
	if diff := cmp.Diff(want, rec.AlternativeWeightsKg); diff != "" {
		t.Errorf("AlternativeWeightsKg mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoregulate(t *testing.T) {
	t.Parallel()
	cfg := progression.DefaultConfig()
	original := progression.Recommendation{
		ExerciseID:           1,
		Status:               progression.StatusProgressing,
		SuggestedWeightKg:    50,
		SuggestedReps:        8,
		IncreaseAmountKg:     2.5,
		AlternativeWeightsKg: []float64{45, 47.5, 52.5, 55},
		Confidence:           progression.ConfidenceHigh,
		AverageEffort:        6.5,
		Reasoning:            "increasing to 50.0kg (+2.5kg).",
	}

	t.Run("backs off on effort overshoot", func(t *testing.T) {
		t.Parallel()
		live := []progression.SetRecord{
			{WeightKg: 50, Reps: 8, Effort: 9, Completed: true},
		}
		before := original

		adjusted, err := progression.Autoregulate(original, live, cfg)
		if err != nil {
			t.Fatalf("Autoregulate returned unexpected error: %v", err)
		}
		// Overshoot 2.5 over a 1.5 threshold backs off two increments.
		if adjusted.SuggestedWeightKg != 45 {
			t.Errorf("SuggestedWeightKg = %v, want 45", adjusted.SuggestedWeightKg)
		}
		if adjusted.IncreaseAmountKg != -2.5 {
			t.Errorf("IncreaseAmountKg = %v, want -2.5", adjusted.IncreaseAmountKg)
		}
		if diff := cmp.Diff(before, original); diff != "" {
			t.Errorf("original recommendation modified (-before +after):\n%s", diff)
		}
	})

	t.Run("no adjustment within the threshold", func(t *testing.T) {
		t.Parallel()
		live := []progression.SetRecord{
			{WeightKg: 50, Reps: 8, Effort: 7.5, Completed: true},
		}

		adjusted, err := progression.Autoregulate(original, live, cfg)
		if err != nil {
			t.Fatalf("Autoregulate returned unexpected error: %v", err)
		}
		if diff := cmp.Diff(original, adjusted); diff != "" {
			t.Errorf("recommendation changed without overshoot (-want +got):\n%s", diff)
		}
	})

	t.Run("ignores sets at a different weight", func(t *testing.T) {
		t.Parallel()
		live := []progression.SetRecord{
			{WeightKg: 60, Reps: 8, Effort: 10, Completed: true},
		}

		adjusted, err := progression.Autoregulate(original, live, cfg)
		if err != nil {
			t.Fatalf("Autoregulate returned unexpected error: %v", err)
		}
		if adjusted.SuggestedWeightKg != original.SuggestedWeightKg {
			t.Errorf("SuggestedWeightKg = %v, want unchanged %v",
				adjusted.SuggestedWeightKg, original.SuggestedWeightKg)
		}
	})

	t.Run("rejects malformed live sets", func(t *testing.T) {
		t.Parallel()
		live := []progression.SetRecord{
			{WeightKg: 50, Reps: 8, Effort: 12, Completed: true},
		}

		_, err := progression.Autoregulate(original, live, cfg)
		if !errors.Is(err, progression.ErrInvalidRecord) {
			t.Errorf("Autoregulate error = %v, want ErrInvalidRecord", err)
		}
	})
}

func TestEngineMemoization(t *testing.T) {
	t.Parallel()
	engine := progression.NewEngine(progression.DefaultCacheTTL)
	cfg := progression.DefaultConfig()

	raw := []progression.RawSession{
		session(1, 0, 40, 10, 6, true),
		session(2, 1, 42.5, 10, 6, true),
		session(3, 2, 45, 10, 6, true),
	}
	history, err := progression.Aggregate(7, raw, cfg)
	if err != nil {
		t.Fatalf("Aggregate returned unexpected error: %v", err)
	}

	first := engine.Recommend(history, cfg)
	cached := engine.Recommend(history, cfg)
	if diff := cmp.Diff(first, cached); diff != "" {
		t.Errorf("cached recommendation mismatch (-first +cached):\n%s", diff)
	}

	engine.Invalidate(7)
	fresh := engine.Recommend(history, cfg)
	if diff := cmp.Diff(first, fresh); diff != "" {
		t.Errorf("recomputed recommendation mismatch (-first +fresh):\n%s", diff)
	}

	// A newer session bypasses stale entries without invalidation.
	raw = append(raw, session(4, 3, 47.5, 10, 6, true))
	history, err = progression.Aggregate(7, raw, cfg)
	if err != nil {
		t.Fatalf("Aggregate returned unexpected error: %v", err)
	}
	updated := engine.Recommend(history, cfg)
	if updated.SuggestedWeightKg != 50 {
		t.Errorf("SuggestedWeightKg = %v, want 50 from the extended history",
			updated.SuggestedWeightKg)
	}
}
