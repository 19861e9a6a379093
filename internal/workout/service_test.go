package workout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/sqlite"
	"github.com/myrjola/overload/internal/testhelpers"
	"github.com/myrjola/overload/internal/workout"
)

var logBase = time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (context.Context, *workout.Service) {
	t.Helper()
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	svc := workout.NewService(db, logger, workout.DefaultIncrements(), progression.DefaultConfig())
	return ctx, svc
}

// logUniformSession logs three identical sets for the exercise.
func logUniformSession(
	ctx context.Context,
	t *testing.T,
	svc *workout.Service,
	exerciseID int64,
	week int,
	weight float64,
	effort float64,
	completed bool,
) {
	t.Helper()
	set := progression.SetRecord{WeightKg: weight, Reps: 10, Effort: effort, Completed: completed}
	performedAt := logBase.AddDate(0, 0, 7*week)
	if _, err := svc.LogSession(ctx, exerciseID, performedAt, []progression.SetRecord{set, set, set}); err != nil {
		t.Fatalf("Failed to log session: %v", err)
	}
}

func TestService_Recommend_NoHistory(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	// Exercise 1 is seeded by fixtures and has no sessions yet.
	rec, err := svc.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend returned unexpected error: %v", err)
	}
	if rec.Status != progression.StatusInsufficientData {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusInsufficientData)
	}
	if rec.IncreaseAmountKg != 0 {
		t.Errorf("IncreaseAmountKg = %v, want 0", rec.IncreaseAmountKg)
	}
}

func TestService_Recommend_ProgressingHistory(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	weights := []float64{40, 42.5, 45, 47.5, 50}
	for week, weight := range weights {
		logUniformSession(ctx, t, svc, 1, week, weight, 6, true)
	}

	rec, err := svc.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend returned unexpected error: %v", err)
	}
	if rec.Status != progression.StatusProgressing {
		t.Errorf("Status = %s, want %s", rec.Status, progression.StatusProgressing)
	}
	// Bench Press is upper_compound, increment 2.5.
	if rec.SuggestedWeightKg != 52.5 {
		t.Errorf("SuggestedWeightKg = %v, want 52.5", rec.SuggestedWeightKg)
	}
	if rec.LastSession == nil || rec.LastSession.TotalVolumeKg != 1500 {
		t.Errorf("LastSession = %+v, want the most recent session with volume 1500", rec.LastSession)
	}
}

func TestService_Recommend_UsesEquipmentClassIncrement(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	created, err := svc.CreateExercise(ctx, workout.Exercise{
		Name:                "Test Cable Fly",
		EquipmentClass:      workout.EquipmentUpperIsolation,
		DescriptionMarkdown: "Isolation test exercise.",
	})
	if err != nil {
		t.Fatalf("CreateExercise returned unexpected error: %v", err)
	}

	weights := []float64{20, 21.25, 22.5, 23.75}
	for week, weight := range weights {
		logUniformSession(ctx, t, svc, created.ID, week, weight, 6, true)
	}

	rec, err := svc.Recommend(ctx, created.ID)
	if err != nil {
		t.Fatalf("Recommend returned unexpected error: %v", err)
	}
	// upper_isolation uses a 1.25kg increment.
	if rec.SuggestedWeightKg != 25 {
		t.Errorf("SuggestedWeightKg = %v, want 25", rec.SuggestedWeightKg)
	}
}

func TestService_Recommend_UnknownExercise(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	_, err := svc.Recommend(ctx, 99999)
	if !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("Recommend error = %v, want ErrNotFound", err)
	}
}

func TestService_LogSession_RejectsMalformedSets(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	sets := []progression.SetRecord{
		{WeightKg: 40, Reps: 10, Effort: 11, Completed: true},
	}
	_, err := svc.LogSession(ctx, 1, logBase, sets)
	if !errors.Is(err, progression.ErrInvalidRecord) {
		t.Errorf("LogSession error = %v, want ErrInvalidRecord", err)
	}

	// Nothing may have been persisted for the failed log.
	rec, err := svc.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend returned unexpected error: %v", err)
	}
	if rec.LastSession != nil {
		t.Errorf("LastSession = %+v, want nil after a rejected session", rec.LastSession)
	}
}

func TestService_LogSession_InvalidatesRecommendation(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	weights := []float64{40, 42.5, 45, 47.5}
	for week, weight := range weights {
		logUniformSession(ctx, t, svc, 1, week, weight, 6, true)
	}
	before, err := svc.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend returned unexpected error: %v", err)
	}
	if before.SuggestedWeightKg != 50 {
		t.Fatalf("SuggestedWeightKg = %v, want 50", before.SuggestedWeightKg)
	}

	// A newly logged session must be visible immediately.
	logUniformSession(ctx, t, svc, 1, len(weights), 50, 6, true)
	after, err := svc.Recommend(ctx, 1)
	if err != nil {
		t.Fatalf("Recommend returned unexpected error: %v", err)
	}
	if after.SuggestedWeightKg != 52.5 {
		t.Errorf("SuggestedWeightKg = %v, want 52.5 after the new session", after.SuggestedWeightKg)
	}
}

func TestService_Autoregulate(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	weights := []float64{40, 42.5, 45, 47.5, 50}
	for week, weight := range weights {
		logUniformSession(ctx, t, svc, 1, week, weight, 6, true)
	}

	// The recommendation is 52.5; a first live set at that weight with a
	// far higher effort than the historical average backs the load off.
	live := []progression.SetRecord{
		{WeightKg: 52.5, Reps: 10, Effort: 9, Completed: true},
	}
	adjusted, err := svc.Autoregulate(ctx, 1, live)
	if err != nil {
		t.Fatalf("Autoregulate returned unexpected error: %v", err)
	}
	if adjusted.SuggestedWeightKg >= 52.5 {
		t.Errorf("SuggestedWeightKg = %v, want below the original 52.5", adjusted.SuggestedWeightKg)
	}
	if adjusted.SuggestedWeightKg < 47.5 {
		t.Errorf("SuggestedWeightKg = %v, want the back-off capped at two increments", adjusted.SuggestedWeightKg)
	}
}

func TestService_RecommendAll(t *testing.T) {
	t.Parallel()
	ctx, svc := newTestService(t)

	exercises, err := svc.ListExercises(ctx)
	if err != nil {
		t.Fatalf("ListExercises returned unexpected error: %v", err)
	}
	if len(exercises) == 0 {
		t.Fatal("expected seeded exercises in the catalog")
	}

	logUniformSession(ctx, t, svc, exercises[0].ID, 0, 40, 6, true)

	recommendations, err := svc.RecommendAll(ctx)
	if err != nil {
		t.Fatalf("RecommendAll returned unexpected error: %v", err)
	}
	if len(recommendations) != len(exercises) {
		t.Fatalf("recommendation count = %d, want %d", len(recommendations), len(exercises))
	}
	for i, rec := range recommendations {
		if rec.ExerciseID != exercises[i].ID {
			t.Errorf("recommendation %d is for exercise %d, want %d", i, rec.ExerciseID, exercises[i].ID)
		}
	}
}

func TestDefaultIncrements(t *testing.T) {
	t.Parallel()
	table := workout.DefaultIncrements()

	if got := table.For(workout.EquipmentLowerCompound); got != 5 {
		t.Errorf("lower_compound increment = %v, want 5", got)
	}
	if got := table.For(workout.EquipmentUpperIsolation); got != 1.25 {
		t.Errorf("upper_isolation increment = %v, want 1.25", got)
	}
	if got := table.For(workout.EquipmentClass("unknown")); got != 2.5 {
		t.Errorf("unknown class increment = %v, want the 2.5 default", got)
	}
}
