package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus enumerates missed-exam request states. Only PENDING is mutable.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// MissedExamRequest is a student's claim that an assigned window was missed.
type MissedExamRequest struct {
	ID                 uuid.UUID     `json:"id"`
	ExamID             uuid.UUID     `json:"exam_id"`
	StudentID          int           `json:"student_id"`
	Reason             string        `json:"reason"`
	Status             RequestStatus `json:"status"`
	InstructorResponse *string       `json:"instructor_response,omitempty"`
	NewStart           *time.Time    `json:"new_start,omitempty"`
	NewEnd             *time.Time    `json:"new_end,omitempty"`
	ResolvedBy         *int          `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

// SubmitMissedExamRequest is the student payload.
type SubmitMissedExamRequest struct {
	Reason string `json:"reason" binding:"required,min=10,max=2000"`
}

// ApproveMissedExamRequest carries the replacement window.
type ApproveMissedExamRequest struct {
	NewStart time.Time `json:"new_start" binding:"required"`
	NewEnd   time.Time `json:"new_end" binding:"required,gtfield=NewStart"`
}

// RejectMissedExamRequest carries the mandatory rejection reason.
type RejectMissedExamRequest struct {
	Response string `json:"response" binding:"required,min=3,max=2000"`
}
