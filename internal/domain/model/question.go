package model

import (
	"time"
)

type QuestionType string
type QuestionDifficulty string

const (
	TypeHomework  QuestionType = "homework"
	TypeClasswork QuestionType = "classwork"

	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

// Question is a catalog entry pointing at a problem on an external judge.
// The judge platform is derived from QuestionLink, never stored.
type Question struct {
	ID           string             `json:"id"`
	QuestionName string             `json:"question_name"`
	QuestionLink string             `json:"question_link"`
	Type         QuestionType       `json:"type"`
	Difficulty   QuestionDifficulty `json:"difficulty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func (t QuestionType) Valid() bool {
	return t == TypeHomework || t == TypeClasswork
}

func (d QuestionDifficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}
