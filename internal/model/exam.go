package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus enumerates the admin review states of an instructor-created exam.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Exam is a graded assessment bound to one course and one instructor.
// ScheduledStart/ScheduledEnd bound the exam's overall validity; the slot a
// student may actually sit is carried by their ExamSchedule.
type Exam struct {
	ID                uuid.UUID      `json:"id"`
	CourseID          uuid.UUID      `json:"course_id"`
	InstructorID      int            `json:"instructor_id"`
	Title             string         `json:"title"`
	TotalMarks        int            `json:"total_marks"`
	PartAMarks        int            `json:"part_a_marks"`
	PartBMarks        int            `json:"part_b_marks"`
	InternalMarks     int            `json:"internal_marks"`
	PassingPercentage float64        `json:"passing_percentage"`
	DurationMinutes   int            `json:"duration_minutes"`
	ApprovalStatus    ApprovalStatus `json:"approval_status"`
	IsActive          bool           `json:"is_active"`
	ScheduledStart    *time.Time     `json:"scheduled_start,omitempty"`
	ScheduledEnd      *time.Time     `json:"scheduled_end,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// IsApproved reports whether an admin approved the exam.
func (e *Exam) IsApproved() bool {
	return e.ApprovalStatus == ApprovalStatusApproved
}

// Available reports whether students may sit the exam at all.
func (e *Exam) Available() bool {
	return e.IsApproved() && e.IsActive
}

// MarksBalanced checks PartA + PartB + Internal == Total.
func (e *Exam) MarksBalanced() bool {
	return e.PartAMarks+e.PartBMarks+e.InternalMarks == e.TotalMarks
}

// Duration returns the sitting length.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	CourseID          uuid.UUID  `json:"course_id" binding:"required"`
	Title             string     `json:"title" binding:"required,min=3,max=255"`
	TotalMarks        int        `json:"total_marks" binding:"required,min=1"`
	PartAMarks        int        `json:"part_a_marks" binding:"min=0"`
	PartBMarks        int        `json:"part_b_marks" binding:"min=0"`
	InternalMarks     int        `json:"internal_marks" binding:"min=0"`
	PassingPercentage float64    `json:"passing_percentage" binding:"gte=0,lte=100"`
	DurationMinutes   int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	ScheduledStart    *time.Time `json:"scheduled_start" binding:"omitempty"`
	ScheduledEnd      *time.Time `json:"scheduled_end" binding:"omitempty,gtfield=ScheduledStart"`
}

// ReviewExamRequest is the admin decision on a pending exam.
type ReviewExamRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}
