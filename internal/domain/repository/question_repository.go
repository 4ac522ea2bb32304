package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
)

type QuestionRepository interface {
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Question, error)
	List(ctx context.Context) ([]model.Question, error)
	ListFiltered(ctx context.Context, qType model.QuestionType, difficulty model.QuestionDifficulty) ([]model.Question, error)
}

type pgQuestionRepository struct {
	db *sql.DB
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db}
}

func (r *pgQuestionRepository) Create(ctx context.Context, q *model.Question) error {
	query := `INSERT INTO questions (id, question_name, question_link, type, difficulty)
	          VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, q.ID, q.QuestionName, q.QuestionLink, q.Type, q.Difficulty); err != nil {
		return fmt.Errorf("pgQuestionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgQuestionRepository) Update(ctx context.Context, q *model.Question) error {
	query := `UPDATE questions SET question_name = $1, question_link = $2, type = $3, difficulty = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, q.QuestionName, q.QuestionLink, q.Type, q.Difficulty, q.ID)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgQuestionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgQuestionRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	query := `SELECT id, question_name, question_link, type, difficulty, created_at FROM questions WHERE id = $1`
	q := &model.Question{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.QuestionName, &q.QuestionLink, &q.Type, &q.Difficulty, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindByID: %w", err)
	}
	return q, nil
}

func (r *pgQuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	return r.ListFiltered(ctx, "", "")
}

func (r *pgQuestionRepository) ListFiltered(ctx context.Context, qType model.QuestionType, difficulty model.QuestionDifficulty) ([]model.Question, error) {
	var query strings.Builder
	query.WriteString(`SELECT id, question_name, question_link, type, difficulty, created_at FROM questions`)

	var conditions []string
	var args []interface{}
	argID := 1

	if qType != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argID))
		args = append(args, qType)
		argID++
	}
	if difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, difficulty)
		argID++
	}
	if len(conditions) > 0 {
		query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	query.WriteString(" ORDER BY created_at DESC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.ListFiltered query: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionName, &q.QuestionLink, &q.Type, &q.Difficulty, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.ListFiltered scan: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.ListFiltered rows.Err: %w", err)
	}
	return questions, nil
}
