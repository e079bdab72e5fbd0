package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is issued once per passing, published attempt.
type Certificate struct {
	ID                uuid.UUID `json:"id"`
	StudentID         int       `json:"student_id"`
	CourseID          uuid.UUID `json:"course_id"`
	AttemptID         uuid.UUID `json:"attempt_id"`
	CertificateNumber string    `json:"certificate_number"`
	IssuedAt          time.Time `json:"issued_at"`
}

// AchievementCode identifies an achievement rule.
type AchievementCode string

const (
	AchievementCourseCompleted AchievementCode = "COURSE_COMPLETED"
	AchievementExamPassed      AchievementCode = "EXAM_PASSED"
	AchievementPerfectScore    AchievementCode = "PERFECT_SCORE"
	AchievementReExamPassed    AchievementCode = "RE_EXAM_PASSED"
)

// StudentAchievement is an awarded achievement. ReferenceID is the course or
// attempt that earned it.
type StudentAchievement struct {
	ID          uuid.UUID       `json:"id"`
	StudentID   int             `json:"student_id"`
	Code        AchievementCode `json:"code"`
	ReferenceID uuid.UUID       `json:"reference_id"`
	AwardedAt   time.Time       `json:"awarded_at"`
}
