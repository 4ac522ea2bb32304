package service

import (
	"context"
	"fmt"
	"strings"

	"dsatrack/internal/app/sync"
	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
	"dsatrack/internal/domain/repository"

	"github.com/google/uuid"
)

type QuestionService struct {
	questionRepo repository.QuestionRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

type QuestionRequest struct {
	QuestionName string `json:"question_name"`
	QuestionLink string `json:"question_link"`
	Type         string `json:"type"`
	Difficulty   string `json:"difficulty"`
}

// QuestionView is a catalog question plus its derived judge platform.
type QuestionView struct {
	model.Question
	Platform sync.Platform `json:"platform"`
}

func (s *QuestionService) validate(req QuestionRequest) (*model.Question, error) {
	name := strings.TrimSpace(req.QuestionName)
	link := strings.TrimSpace(req.QuestionLink)
	if name == "" || link == "" {
		return nil, fmt.Errorf("question_name and question_link are required: %w", common.ErrValidation)
	}
	qType := model.QuestionType(req.Type)
	if !qType.Valid() {
		return nil, fmt.Errorf("type must be homework or classwork: %w", common.ErrValidation)
	}
	difficulty := model.QuestionDifficulty(req.Difficulty)
	if !difficulty.Valid() {
		return nil, fmt.Errorf("difficulty must be easy, medium or hard: %w", common.ErrValidation)
	}
	return &model.Question{
		QuestionName: name,
		QuestionLink: link,
		Type:         qType,
		Difficulty:   difficulty,
	}, nil
}

func (s *QuestionService) Create(ctx context.Context, req QuestionRequest) (*QuestionView, error) {
	q, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	q.ID = uuid.NewString()
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return toView(q), nil
}

func (s *QuestionService) Update(ctx context.Context, id string, req QuestionRequest) (*QuestionView, error) {
	q, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return toView(q), nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (s *QuestionService) Get(ctx context.Context, id string) (*QuestionView, error) {
	q, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toView(q), nil
}

// List returns the catalog, optionally filtered by type and difficulty.
// Empty filter values mean no filtering on that field; non-empty values
// must be valid or the request is rejected.
func (s *QuestionService) List(ctx context.Context, qType, difficulty string) ([]QuestionView, error) {
	t := model.QuestionType(qType)
	if qType != "" && !t.Valid() {
		return nil, fmt.Errorf("invalid type filter %q: %w", qType, common.ErrValidation)
	}
	d := model.QuestionDifficulty(difficulty)
	if difficulty != "" && !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty filter %q: %w", difficulty, common.ErrValidation)
	}

	questions, err := s.questionRepo.ListFiltered(ctx, t, d)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	views := make([]QuestionView, 0, len(questions))
	for i := range questions {
		views = append(views, *toView(&questions[i]))
	}
	return views, nil
}

func toView(q *model.Question) *QuestionView {
	return &QuestionView{Question: *q, Platform: sync.IdentifyPlatform(q.QuestionLink)}
}
