package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamAnswer is one answer row per (attempt, question).
type ExamAnswer struct {
	ID               uuid.UUID  `json:"id"`
	AttemptID        uuid.UUID  `json:"attempt_id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	Part             ExamPart   `json:"part"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	AnswerText       string     `json:"answer_text,omitempty"`
	IsCorrect        bool       `json:"is_correct"`
	Points           int        `json:"points"`
	CreatedAt        time.Time  `json:"created_at"`
}
