package service

import (
	"context"
	"fmt"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/repository"
)

type BookmarkService struct {
	bookmarkRepo repository.BookmarkRepository
	questionRepo repository.QuestionRepository
}

func NewBookmarkService(bookmarkRepo repository.BookmarkRepository, questionRepo repository.QuestionRepository) *BookmarkService {
	return &BookmarkService{bookmarkRepo: bookmarkRepo, questionRepo: questionRepo}
}

type ToggleBookmarkResponse struct {
	QuestionID string `json:"question_id"`
	Action     string `json:"action"` // "added" or "removed"
}

func (s *BookmarkService) ListForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.bookmarkRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return ids, nil
}

// Toggle flips the bookmark state for a question and reports which way it
// went.
func (s *BookmarkService) Toggle(ctx context.Context, userID, questionID string) (*ToggleBookmarkResponse, error) {
	if questionID == "" {
		return nil, fmt.Errorf("question_id is required: %w", common.ErrValidation)
	}
	if _, err := s.questionRepo.FindByID(ctx, questionID); err != nil {
		return nil, err
	}

	exists, err := s.bookmarkRepo.Exists(ctx, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookmark: %w", err)
	}

	if exists {
		if err := s.bookmarkRepo.Remove(ctx, userID, questionID); err != nil {
			return nil, fmt.Errorf("failed to remove bookmark: %w", err)
		}
		return &ToggleBookmarkResponse{QuestionID: questionID, Action: "removed"}, nil
	}

	if err := s.bookmarkRepo.Add(ctx, userID, questionID); err != nil {
		return nil, fmt.Errorf("failed to add bookmark: %w", err)
	}
	return &ToggleBookmarkResponse{QuestionID: questionID, Action: "added"}, nil
}
