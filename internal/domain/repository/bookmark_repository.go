package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dsatrack/internal/common"
)

type BookmarkRepository interface {
	ListByUser(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, questionID string) (bool, error)
	Add(ctx context.Context, userID, questionID string) error
	Remove(ctx context.Context, userID, questionID string) error
}

type pgBookmarkRepository struct {
	db *sql.DB
}

func NewPgBookmarkRepository(db *sql.DB) BookmarkRepository {
	return &pgBookmarkRepository{db: db}
}

func (r *pgBookmarkRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT question_id FROM user_bookmarks WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgBookmarkRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgBookmarkRepository.ListByUser scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgBookmarkRepository.ListByUser rows.Err: %w", err)
	}
	return ids, nil
}

func (r *pgBookmarkRepository) Exists(ctx context.Context, userID, questionID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_bookmarks WHERE user_id = $1 AND question_id = $2`, userID, questionID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pgBookmarkRepository.Exists: %w", err)
	}
	return true, nil
}

func (r *pgBookmarkRepository) Add(ctx context.Context, userID, questionID string) error {
	query := `INSERT INTO user_bookmarks (user_id, question_id, bookmarked_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (user_id, question_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, questionID); err != nil {
		return fmt.Errorf("pgBookmarkRepository.Add: %w", err)
	}
	return nil
}

func (r *pgBookmarkRepository) Remove(ctx context.Context, userID, questionID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_bookmarks WHERE user_id = $1 AND question_id = $2`, userID, questionID)
	if err != nil {
		return fmt.Errorf("pgBookmarkRepository.Remove: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
