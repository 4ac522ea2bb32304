package model

import "time"

// ProgressRecord tracks one (user, question) pair. At most one row per
// pair; writes go through an upsert so repeated syncs stay idempotent.
type ProgressRecord struct {
	UserID     string     `json:"user_id"`
	QuestionID string     `json:"question_id"`
	IsSolved   bool       `json:"is_solved"`
	SolvedAt   *time.Time `json:"solved_at,omitempty"`
}

type Bookmark struct {
	UserID       string    `json:"user_id"`
	QuestionID   string    `json:"question_id"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

type LeaderboardEntry struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	FullName    string  `json:"full_name"`
	SolvedCount int     `json:"solved_count"`
	Rank        int     `json:"rank"`
	SuccessRate float64 `json:"success_rate"`
}
