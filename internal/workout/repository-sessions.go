package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// sqliteSessionRepository stores logged training sessions and their sets.
// Sets are immutable once logged, so the repository only appends and reads.
type sqliteSessionRepository struct {
	db *sqlite.Database
}

func newSQLiteSessionRepository(db *sqlite.Database) *sqliteSessionRepository {
	return &sqliteSessionRepository{db: db}
}

// Create persists a session with its sets in one transaction and returns
// the session ID.
func (r *sqliteSessionRepository) Create(
	ctx context.Context,
	exerciseID int64,
	performedAt time.Time,
	sets []progression.SetRecord,
) (_ int64, err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO workout_sessions (exercise_id, performed_at)
		VALUES (?, ?)`,
		exerciseID, performedAt.UTC().Format(timestampFormat))
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert ID: %w", err)
	}

	for i, set := range sets {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO set_records (session_id, set_number, weight_kg, reps, effort, completed)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, i+1, set.WeightKg, set.Reps, set.Effort, set.Completed); err != nil {
			return 0, fmt.Errorf("insert set %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return sessionID, nil
}

// ListForExercise returns the most recent sessions for an exercise with
// their sets, newest first, capped at limit.
func (r *sqliteSessionRepository) ListForExercise(
	ctx context.Context,
	exerciseID int64,
	limit int,
) (_ []progression.RawSession, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, performed_at
		FROM workout_sessions
		WHERE exercise_id = ?
		ORDER BY performed_at DESC, id DESC
		LIMIT ?`, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var sessions []progression.RawSession
	for rows.Next() {
		var (
			session     progression.RawSession
			performedAt string
		)
		if err = rows.Scan(&session.ID, &performedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if session.PerformedAt, err = time.Parse(timestampFormat, performedAt); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", performedAt, err)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range sessions {
		if sessions[i].Sets, err = r.fetchSets(ctx, sessions[i].ID); err != nil {
			return nil, fmt.Errorf("fetch sets for session %d: %w", sessions[i].ID, err)
		}
	}

	return sessions, nil
}

// fetchSets loads the ordered set records of a session.
func (r *sqliteSessionRepository) fetchSets(ctx context.Context, sessionID int64) (_ []progression.SetRecord, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT weight_kg, reps, effort, completed
		FROM set_records
		WHERE session_id = ?
		ORDER BY set_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var sets []progression.SetRecord
	for rows.Next() {
		var set progression.SetRecord
		if err = rows.Scan(&set.WeightKg, &set.Reps, &set.Effort, &set.Completed); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sets, nil
}
