package workout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

// recommendAllConcurrency bounds the fan-out when computing recommendations
// for the whole catalog. Recommendations are independent pure computations,
// so ordering between exercises does not matter.
const recommendAllConcurrency = 4

// Service loads exercise history, feeds it through the progression engine
// and persists newly logged sessions.
type Service struct {
	logger     *slog.Logger
	exercises  *sqliteExerciseRepository
	sessions   *sqliteSessionRepository
	engine     *progression.Engine
	increments IncrementTable
	baseConfig progression.Config
}

// NewService creates a workout service. The increment table supplies the
// per-equipment-class weight step for the engine config.
func NewService(
	db *sqlite.Database,
	logger *slog.Logger,
	increments IncrementTable,
	baseConfig progression.Config,
) *Service {
	return &Service{
		logger:     logger,
		exercises:  newSQLiteExerciseRepository(db),
		sessions:   newSQLiteSessionRepository(db),
		engine:     progression.NewEngine(progression.DefaultCacheTTL),
		increments: increments,
		baseConfig: baseConfig,
	}
}

// configFor resolves the engine config for an exercise's equipment class.
func (s *Service) configFor(exercise Exercise) progression.Config {
	cfg := s.baseConfig
	cfg.WeightIncrementKg = s.increments.For(exercise.EquipmentClass)
	return cfg
}

// ListExercises returns the exercise catalog.
func (s *Service) ListExercises(ctx context.Context) ([]Exercise, error) {
	exercises, err := s.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// GetExercise retrieves a specific exercise by ID.
func (s *Service) GetExercise(ctx context.Context, id int64) (Exercise, error) {
	exercise, err := s.exercises.Get(ctx, id)
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise: %w", err)
	}
	return exercise, nil
}

// CreateExercise adds a catalog entry. An unknown equipment class falls
// back to the table default increment, so it is accepted as is.
func (s *Service) CreateExercise(ctx context.Context, exercise Exercise) (Exercise, error) {
	created, err := s.exercises.Create(ctx, exercise)
	if err != nil {
		return Exercise{}, fmt.Errorf("create exercise: %w", err)
	}
	return created, nil
}

// LogSession validates and persists a training session. The sets are
// validated before anything is written so malformed data never reaches
// storage, and the recommendation memo for the exercise is invalidated.
func (s *Service) LogSession(
	ctx context.Context,
	exerciseID int64,
	performedAt time.Time,
	sets []progression.SetRecord,
) (int64, error) {
	exercise, err := s.exercises.Get(ctx, exerciseID)
	if err != nil {
		return 0, fmt.Errorf("get exercise: %w", err)
	}
	if performedAt.IsZero() {
		performedAt = time.Now()
	}

	candidate := progression.RawSession{PerformedAt: performedAt, Sets: sets}
	if _, err = progression.Aggregate(exerciseID, []progression.RawSession{candidate}, s.configFor(exercise)); err != nil {
		return 0, fmt.Errorf("validate session: %w", err)
	}

	sessionID, err := s.sessions.Create(ctx, exerciseID, performedAt, sets)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	s.engine.Invalidate(exerciseID)

	s.logger.LogAttrs(ctx, slog.LevelInfo, "session logged",
		slog.Int64("exercise_id", exerciseID),
		slog.Int64("session_id", sessionID),
		slog.Int("sets", len(sets)))

	return sessionID, nil
}

// Recommend computes the next-session recommendation for an exercise.
func (s *Service) Recommend(ctx context.Context, exerciseID int64) (progression.Recommendation, error) {
	exercise, err := s.exercises.Get(ctx, exerciseID)
	if err != nil {
		return progression.Recommendation{}, fmt.Errorf("get exercise: %w", err)
	}
	return s.recommendExercise(ctx, exercise)
}

func (s *Service) recommendExercise(ctx context.Context, exercise Exercise) (progression.Recommendation, error) {
	cfg := s.configFor(exercise)

	raw, err := s.sessions.ListForExercise(ctx, exercise.ID, cfg.WindowSize)
	if err != nil {
		return progression.Recommendation{}, fmt.Errorf("list sessions: %w", err)
	}
	history, err := progression.Aggregate(exercise.ID, raw, cfg)
	if err != nil {
		return progression.Recommendation{}, fmt.Errorf("aggregate history: %w", err)
	}

	return s.engine.Recommend(history, cfg), nil
}

// Autoregulate layers a session-scoped adjustment over the stored
// recommendation from the sets logged so far in the current session. It is
// re-evaluated from scratch on every call, so the caller simply re-invokes
// it after each new set.
func (s *Service) Autoregulate(
	ctx context.Context,
	exerciseID int64,
	currentSets []progression.SetRecord,
) (progression.Recommendation, error) {
	exercise, err := s.exercises.Get(ctx, exerciseID)
	if err != nil {
		return progression.Recommendation{}, fmt.Errorf("get exercise: %w", err)
	}

	rec, err := s.recommendExercise(ctx, exercise)
	if err != nil {
		return progression.Recommendation{}, err
	}

	adjusted, err := progression.Autoregulate(rec, currentSets, s.configFor(exercise))
	if err != nil {
		return progression.Recommendation{}, fmt.Errorf("autoregulate: %w", err)
	}
	return adjusted, nil
}

// RecommendAll computes recommendations for the whole catalog
// concurrently.
func (s *Service) RecommendAll(ctx context.Context) ([]progression.Recommendation, error) {
	exercises, err := s.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}

	recommendations := make([]progression.Recommendation, len(exercises))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recommendAllConcurrency)
	for i, exercise := range exercises {
		g.Go(func() error {
			rec, err := s.recommendExercise(ctx, exercise)
			if err != nil {
				return fmt.Errorf("recommend %s: %w", exercise.Name, err)
			}
			recommendations[i] = rec
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("recommend all: %w", err)
	}

	return recommendations, nil
}
