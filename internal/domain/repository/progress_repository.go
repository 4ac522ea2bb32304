package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dsatrack/internal/domain/model"
)

type ProgressRepository interface {
	// Upsert writes the (user, question) progress row, inserting or
	// overwriting. Exactly one row exists per pair afterwards no matter
	// how many times it is called.
	Upsert(ctx context.Context, userID, questionID string, isSolved bool, solvedAt *time.Time) error
	ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error)
}

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

func (r *pgProgressRepository) Upsert(ctx context.Context, userID, questionID string, isSolved bool, solvedAt *time.Time) error {
	query := `INSERT INTO user_progress (user_id, question_id, is_solved, solved_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, question_id) DO UPDATE SET is_solved = EXCLUDED.is_solved, solved_at = EXCLUDED.solved_at`
	if _, err := r.db.ExecContext(ctx, query, userID, questionID, isSolved, solvedAt); err != nil {
		return fmt.Errorf("pgProgressRepository.Upsert: %w", err)
	}
	return nil
}

func (r *pgProgressRepository) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	query := `SELECT user_id, question_id, is_solved, solved_at FROM user_progress WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	records := []model.ProgressRecord{}
	for rows.Next() {
		var rec model.ProgressRecord
		if err := rows.Scan(&rec.UserID, &rec.QuestionID, &rec.IsSolved, &rec.SolvedAt); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.ListByUser scan: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.ListByUser rows.Err: %w", err)
	}
	return records, nil
}
