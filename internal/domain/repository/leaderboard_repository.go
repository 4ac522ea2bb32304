package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dsatrack/internal/domain/model"
)

type LeaderboardPeriod string

const (
	PeriodDaily   LeaderboardPeriod = "daily"
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodAllTime LeaderboardPeriod = "all-time"
)

type LeaderboardRepository interface {
	// TopSolvers returns users ranked by solved count within the period.
	// since is ignored when nil (all-time).
	TopSolvers(ctx context.Context, since *time.Time, limit int) ([]model.LeaderboardEntry, error)
	CountQuestions(ctx context.Context) (int, error)
}

type pgLeaderboardRepository struct {
	db *sql.DB
}

func NewPgLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &pgLeaderboardRepository{db: db}
}

func (r *pgLeaderboardRepository) TopSolvers(ctx context.Context, since *time.Time, limit int) ([]model.LeaderboardEntry, error) {
	// The time filter lives in the JOIN condition so users with zero
	// solves in the window still appear with a count of 0.
	query := `
        SELECT u.id, u.username, u.full_name, COUNT(up.question_id) AS solved_count
        FROM users u
        LEFT JOIN user_progress up
               ON u.id = up.user_id
              AND up.is_solved = TRUE
              AND ($1::timestamptz IS NULL OR up.solved_at >= $1)
        WHERE u.role = 'user'
        GROUP BY u.id, u.username, u.full_name
        ORDER BY solved_count DESC, u.username ASC
        LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.TopSolvers query: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.FullName, &e.SolvedCount); err != nil {
			return nil, fmt.Errorf("pgLeaderboardRepository.TopSolvers scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.TopSolvers rows.Err: %w", err)
	}
	return entries, nil
}

func (r *pgLeaderboardRepository) CountQuestions(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgLeaderboardRepository.CountQuestions: %w", err)
	}
	return count, nil
}
