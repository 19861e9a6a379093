package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/myrjola/overload/internal/sqlite"
)

// sqliteExerciseRepository stores the exercise catalog.
type sqliteExerciseRepository struct {
	db *sqlite.Database
}

func newSQLiteExerciseRepository(db *sqlite.Database) *sqliteExerciseRepository {
	return &sqliteExerciseRepository{db: db}
}

// Get retrieves a single exercise by ID.
func (r *sqliteExerciseRepository) Get(ctx context.Context, id int64) (Exercise, error) {
	var exercise Exercise

	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, equipment_class, description_markdown
		FROM exercises
		WHERE id = ?`, id).Scan(
		&exercise.ID,
		&exercise.Name,
		&exercise.EquipmentClass,
		&exercise.DescriptionMarkdown,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query exercise: %w", err)
	}

	return exercise, nil
}

// List returns all catalog exercises.
func (r *sqliteExerciseRepository) List(ctx context.Context) (_ []Exercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, equipment_class, description_markdown
		FROM exercises
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []Exercise
	for rows.Next() {
		var exercise Exercise
		if err = rows.Scan(
			&exercise.ID,
			&exercise.Name,
			&exercise.EquipmentClass,
			&exercise.DescriptionMarkdown,
		); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return exercises, nil
}

// Create adds a new exercise and returns it with the assigned ID.
func (r *sqliteExerciseRepository) Create(ctx context.Context, ex Exercise) (Exercise, error) {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO exercises (name, equipment_class, description_markdown)
		VALUES (?, ?, ?)`,
		ex.Name, ex.EquipmentClass, ex.DescriptionMarkdown)
	if err != nil {
		return Exercise{}, fmt.Errorf("insert exercise: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Exercise{}, fmt.Errorf("get last insert ID: %w", err)
	}
	ex.ID = id
	return ex, nil
}

// Update applies updateFn to the exercise and persists it when the function
// reports a change.
func (r *sqliteExerciseRepository) Update(
	ctx context.Context,
	id int64,
	updateFn func(ex *Exercise) (bool, error),
) error {
	exercise, err := r.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get exercise for update: %w", err)
	}

	updated, err := updateFn(&exercise)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}
	if !updated {
		return nil
	}

	if _, err = r.db.ReadWrite.ExecContext(ctx, `
		UPDATE exercises
		SET name = ?, equipment_class = ?, description_markdown = ?
		WHERE id = ?`,
		exercise.Name, exercise.EquipmentClass, exercise.DescriptionMarkdown, id); err != nil {
		return fmt.Errorf("save updated exercise: %w", err)
	}

	return nil
}
