package service

import (
	"context"
	"fmt"
	"time"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
	"dsatrack/internal/domain/repository"
)

type ProgressService struct {
	progressRepo repository.ProgressRepository
	questionRepo repository.QuestionRepository
}

func NewProgressService(progressRepo repository.ProgressRepository, questionRepo repository.QuestionRepository) *ProgressService {
	return &ProgressService{progressRepo: progressRepo, questionRepo: questionRepo}
}

type ToggleProgressRequest struct {
	QuestionID string `json:"question_id"`
	IsSolved   bool   `json:"is_solved"`
}

// ListForUser returns the user's progress rows. Questions with no row are
// simply absent: unsolved by default.
func (s *ProgressService) ListForUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	records, err := s.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, nil
}

// Toggle sets a question's solved state by hand, outside of any sync.
// Marking solved stamps the time; unmarking clears it.
func (s *ProgressService) Toggle(ctx context.Context, userID string, req ToggleProgressRequest) (*model.ProgressRecord, error) {
	if req.QuestionID == "" {
		return nil, fmt.Errorf("question_id is required: %w", common.ErrValidation)
	}
	if _, err := s.questionRepo.FindByID(ctx, req.QuestionID); err != nil {
		return nil, err
	}

	var solvedAt *time.Time
	if req.IsSolved {
		now := time.Now()
		solvedAt = &now
	}
	if err := s.progressRepo.Upsert(ctx, userID, req.QuestionID, req.IsSolved, solvedAt); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}
	return &model.ProgressRecord{
		UserID:     userID,
		QuestionID: req.QuestionID,
		IsSolved:   req.IsSolved,
		SolvedAt:   solvedAt,
	}, nil
}
