package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	HashedPassword   string    `json:"-"` // Not exposed
	Role             string    `json:"role"`
	FullName         string    `json:"full_name"`
	LeetCodeUsername *string   `json:"leetcode_username,omitempty"`
	GFGUsername      *string   `json:"geeksforgeeks_username,omitempty"`
	ProfilePhoto     *string   `json:"profile_photo,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// RefreshToken is a persisted long-lived credential, one active per user.
type RefreshToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
