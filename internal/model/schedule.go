package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession is the coarse sitting label of a schedule.
type ExamSession string

const (
	SessionMorning   ExamSession = "morning"
	SessionAfternoon ExamSession = "afternoon"
	SessionEvening   ExamSession = "evening"
	// SessionAuto marks schedules created on course completion; the window
	// starts at the exact ScheduledDate timestamp.
	SessionAuto ExamSession = "auto"
	// SessionCustom marks schedules rewritten by an approved missed-exam
	// request; the window is ScheduledDate..WindowEnd.
	SessionCustom ExamSession = "custom"
)

// sessionHours maps labelled sessions to their fixed hour-of-day.
var sessionHours = map[ExamSession]int{
	SessionMorning:   9,
	SessionAfternoon: 14,
	SessionEvening:   18,
}

// Hour returns the fixed start hour for a labelled session.
func (s ExamSession) Hour() (int, bool) {
	h, ok := sessionHours[s]
	return h, ok
}

// Assignable reports whether an instructor may pick this session directly.
func (s ExamSession) Assignable() bool {
	_, ok := sessionHours[s]
	return ok
}

// ExamSchedule assigns one student a concrete sitting of one exam.
type ExamSchedule struct {
	ID            uuid.UUID   `json:"id"`
	ExamID        uuid.UUID   `json:"exam_id"`
	StudentID     int         `json:"student_id"`
	ScheduledDate time.Time   `json:"scheduled_date"`
	Session       ExamSession `json:"session"`
	WindowEnd     *time.Time  `json:"window_end,omitempty"`
	IsAssigned    bool        `json:"is_assigned"`
	AssignedBy    *int        `json:"assigned_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ScheduleView is a schedule with its resolved window.
type ScheduleView struct {
	ExamSchedule
	ExamTitle   string    `json:"exam_title"`
	WindowStart time.Time `json:"window_start"`
	WindowClose time.Time `json:"window_close"`
}

// AssignScheduleRequest is the payload for assigning one student.
type AssignScheduleRequest struct {
	StudentID int         `json:"student_id" binding:"required,min=1"`
	Date      string      `json:"date" binding:"required,datetime=2006-01-02"`
	Session   ExamSession `json:"session" binding:"required,exam_session"`
}

// BulkAssignRequest is the payload for assigning every unscheduled enrolled student.
type BulkAssignRequest struct {
	Date    string      `json:"date" binding:"required,datetime=2006-01-02"`
	Session ExamSession `json:"session" binding:"required,exam_session"`
}

// BulkAssignResult reports a best-effort batch outcome.
type BulkAssignResult struct {
	Assigned int            `json:"assigned"`
	Total    int            `json:"total"`
	Failures map[int]string `json:"failures,omitempty"`
}
