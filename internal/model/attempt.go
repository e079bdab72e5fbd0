package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptState is the derived lifecycle position of an attempt.
type AttemptState string

const (
	AttemptStatePartAOpen           AttemptState = "PART_A_OPEN"
	AttemptStatePartBOpen           AttemptState = "PART_B_OPEN"
	AttemptStateAwaitingGrading     AttemptState = "AWAITING_GRADING"
	AttemptStateAwaitingPublication AttemptState = "AWAITING_PUBLICATION"
	AttemptStatePublished           AttemptState = "PUBLISHED"
)

// ExamAttempt is one sitting of an exam by a student. A re-exam is a new row
// pointing at the failed attempt it replaces through OriginalAttemptID.
type ExamAttempt struct {
	ID                uuid.UUID   `json:"id"`
	ExamID            uuid.UUID   `json:"exam_id"`
	StudentID         int         `json:"student_id"`
	ScheduleID        uuid.UUID   `json:"schedule_id"`
	OriginalAttemptID *uuid.UUID  `json:"original_attempt_id,omitempty"`
	QuestionOrder     []uuid.UUID `json:"question_order"`
	StartedAt         time.Time   `json:"started_at"`

	PartAScore    int     `json:"part_a_score"`
	PartBScore    int     `json:"part_b_score"`
	InternalScore int     `json:"internal_score"`
	TotalScore    int     `json:"total_score"`
	Percentage    float64 `json:"percentage"`
	IsPassed      bool    `json:"is_passed"`

	PartACompleted   bool       `json:"part_a_completed"`
	PartBCompleted   bool       `json:"part_b_completed"`
	InternalAssigned bool       `json:"internal_assigned"`
	IsCompleted      bool       `json:"is_completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	GradedBy          *int       `json:"graded_by,omitempty"`
	GradedAt          *time.Time `json:"graded_at,omitempty"`
	PublishDueAt      *time.Time `json:"publish_due_at,omitempty"`
	ResultPublished   bool       `json:"result_published"`
	ResultPublishedAt *time.Time `json:"result_published_at,omitempty"`
}

// IsReExam reports whether the attempt was created through the paid retake path.
func (a *ExamAttempt) IsReExam() bool {
	return a.OriginalAttemptID != nil
}

// IsFailed reports a graded, published, non-passing attempt.
func (a *ExamAttempt) IsFailed() bool {
	return a.IsCompleted && a.InternalAssigned && a.ResultPublished && !a.IsPassed
}

// State derives the lifecycle position from the completion flags.
func (a *ExamAttempt) State() AttemptState {
	switch {
	case a.ResultPublished:
		return AttemptStatePublished
	case a.InternalAssigned:
		return AttemptStateAwaitingPublication
	case a.PartBCompleted:
		return AttemptStateAwaitingGrading
	case a.PartACompleted:
		return AttemptStatePartBOpen
	default:
		return AttemptStatePartAOpen
	}
}

// Progress is the student-safe projection of an attempt: no scores.
func (a *ExamAttempt) Progress() AttemptProgress {
	return AttemptProgress{
		ID:             a.ID,
		ExamID:         a.ExamID,
		State:          a.State(),
		IsReExam:       a.IsReExam(),
		StartedAt:      a.StartedAt,
		PartACompleted: a.PartACompleted,
		PartBCompleted: a.PartBCompleted,
		CompletedAt:    a.CompletedAt,
	}
}

// AttemptProgress is what a student sees of an attempt before publication.
type AttemptProgress struct {
	ID             uuid.UUID    `json:"id"`
	ExamID         uuid.UUID    `json:"exam_id"`
	State          AttemptState `json:"state"`
	IsReExam       bool         `json:"is_re_exam"`
	StartedAt      time.Time    `json:"started_at"`
	PartACompleted bool         `json:"part_a_completed"`
	PartBCompleted bool         `json:"part_b_completed"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// AttemptResult is the published result shown to a student.
type AttemptResult struct {
	AttemptID     uuid.UUID `json:"attempt_id"`
	ExamID        uuid.UUID `json:"exam_id"`
	PartAScore    int       `json:"part_a_score"`
	PartBScore    int       `json:"part_b_score"`
	InternalScore int       `json:"internal_score"`
	TotalScore    int       `json:"total_score"`
	TotalMarks    int       `json:"total_marks"`
	Percentage    float64   `json:"percentage"`
	IsPassed      bool      `json:"is_passed"`
	PublishedAt   time.Time `json:"published_at"`
}

// PartAAnswerInput is one submitted objective answer; a nil option means unattempted.
type PartAAnswerInput struct {
	QuestionID uuid.UUID  `json:"question_id" binding:"required"`
	OptionID   *uuid.UUID `json:"option_id"`
}

// SubmitPartARequest is the payload for submitting Part A.
type SubmitPartARequest struct {
	Answers []PartAAnswerInput `json:"answers" binding:"dive"`
}

// PartBAnswerInput is one submitted free-text answer.
type PartBAnswerInput struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Text       string    `json:"text" binding:"max=20000"`
}

// SubmitPartBRequest is the payload for submitting Part B.
type SubmitPartBRequest struct {
	Answers []PartBAnswerInput `json:"answers" binding:"dive"`
}

// PartBGradeInput is the instructor's mark for one Part B answer.
type PartBGradeInput struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Points     int       `json:"points" binding:"min=0"`
}

// GradePartBRequest is the payload for grading Part B.
type GradePartBRequest struct {
	Grades []PartBGradeInput `json:"grades" binding:"required,min=1,dive"`
}

// AssignInternalRequest is the payload for assigning internal-assessment marks.
type AssignInternalRequest struct {
	InternalMarks *int `json:"internal_marks" binding:"required,min=0"`
}

// GradingView is what an instructor sees when grading an attempt.
type GradingView struct {
	Attempt   *ExamAttempt   `json:"attempt"`
	Questions []ExamQuestion `json:"questions"`
	Answers   []ExamAnswer   `json:"answers"`
}
