package model

import (
	"github.com/google/uuid"
)

// ExamPart partitions the question bank.
type ExamPart string

const (
	// PartA holds objective, auto-scored questions.
	PartA ExamPart = "A"
	// PartB holds subjective, human-graded questions.
	PartB ExamPart = "B"
)

// ExamQuestion is a single question of an exam's bank.
type ExamQuestion struct {
	ID           uuid.UUID            `json:"id"`
	ExamID       uuid.UUID            `json:"exam_id"`
	Part         ExamPart             `json:"part"`
	QuestionText string               `json:"question_text"`
	Points       int                  `json:"points"`
	OrderNum     int                  `json:"order_num"`
	Options      []ExamQuestionOption `json:"options,omitempty"`
}

// ExamQuestionOption is a selectable answer of a Part A question.
type ExamQuestionOption struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	OptionText string    `json:"option_text"`
	IsCorrect  bool      `json:"is_correct"`
	OrderNum   int       `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Part         ExamPart           `json:"part" binding:"required,oneof=A B"`
	QuestionText string             `json:"question_text" binding:"required,min=1,max=2000"`
	Points       int                `json:"points" binding:"min=0"`
	OrderNum     int                `json:"order_num" binding:"min=0"`
	Options      []AddOptionRequest `json:"options" binding:"omitempty,dive"`
}

// AddOptionRequest describes one option of a Part A question.
type AddOptionRequest struct {
	OptionText string `json:"option_text" binding:"required,min=1,max=1000"`
	IsCorrect  bool   `json:"is_correct"`
}

// QuestionForStudent is a question without correctness flags, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID          `json:"id"`
	Part         ExamPart           `json:"part"`
	QuestionText string             `json:"question_text"`
	Points       int                `json:"points"`
	Options      []OptionForStudent `json:"options,omitempty"`
}

// OptionForStudent is an option without its correctness flag.
type OptionForStudent struct {
	ID         uuid.UUID `json:"id"`
	OptionText string    `json:"option_text"`
}

// ExamPaper is the student-facing paper of an attempt in its persisted order.
type ExamPaper struct {
	AttemptID       uuid.UUID            `json:"attempt_id"`
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}
