package model

import (
	"time"

	"github.com/google/uuid"
)

// Course is the minimal view of a catalog course the engine needs: who owns it.
type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	InstructorID int       `json:"instructor_id"`
}

// EnrollmentStatus enumerates enrollment states.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment links a student to a course.
type Enrollment struct {
	ID          uuid.UUID        `json:"id"`
	StudentID   int              `json:"student_id"`
	CourseID    uuid.UUID        `json:"course_id"`
	Status      EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time        `json:"enrolled_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// CompleteEnrollmentRequest is sent by the catalog when a student finishes a course.
type CompleteEnrollmentRequest struct {
	StudentID int       `json:"student_id" binding:"required,min=1"`
	CourseID  uuid.UUID `json:"course_id" binding:"required"`
}
