package service

import (
	"context"
	"fmt"
	"strings"

	"dsatrack/internal/common"
	"dsatrack/internal/common/security"
	"dsatrack/internal/domain/model"
	"dsatrack/internal/domain/repository"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type CreateUserRequest struct {
	Username         string  `json:"username"`
	Password         string  `json:"password"`
	FullName         string  `json:"full_name"`
	LeetCodeUsername *string `json:"leetcode_username"`
	GFGUsername      *string `json:"geeksforgeeks_username"`
}

type UpdateProfileRequest struct {
	FullName         string  `json:"full_name"`
	LeetCodeUsername *string `json:"leetcode_username"`
	GFGUsername      *string `json:"geeksforgeeks_username"`
}

// Create provisions a student account. Admin-only at the API layer; there
// is no self-signup.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:               uuid.NewString(),
		Username:         username,
		HashedPassword:   hashedPassword,
		Role:             model.RoleUser,
		FullName:         strings.TrimSpace(req.FullName),
		LeetCodeUsername: normalizeHandle(req.LeetCodeUsername),
		GFGUsername:      normalizeHandle(req.GFGUsername),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.ListByRole(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i].HashedPassword = ""
	}
	return users, nil
}

// UpdateProfile changes the display name and judge handles. Clearing a
// handle (null or empty) detaches the account from that platform.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*model.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("full_name is required: %w", common.ErrValidation)
	}
	if err := s.userRepo.UpdateProfile(ctx, id, fullName, normalizeHandle(req.LeetCodeUsername), normalizeHandle(req.GFGUsername)); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the account along with its progress, bookmarks and
// tokens.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}

func normalizeHandle(h *string) *string {
	if h == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*h)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
