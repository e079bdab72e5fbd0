package service

import (
	"time"

	"github.com/stemsi/exstem-lms/internal/model"
)

// TimeWindow is a closed interval [Start, End].
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports Start <= t <= End.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowEvaluator resolves schedules into concrete windows. Session hours are
// wall-clock hours in Location.
type WindowEvaluator struct {
	Location *time.Location
}

// NewWindowEvaluator creates a WindowEvaluator; a nil location means UTC.
func NewWindowEvaluator(loc *time.Location) WindowEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	return WindowEvaluator{Location: loc}
}

// WindowFor computes the window of a schedule. Labelled sessions start at their
// fixed hour on the schedule's date; auto and custom sessions start at the exact
// scheduled timestamp. The window closes at WindowEnd when set, else after the
// exam's duration.
func (w WindowEvaluator) WindowFor(s *model.ExamSchedule, exam *model.Exam) (TimeWindow, error) {
	var start time.Time
	switch s.Session {
	case model.SessionAuto, model.SessionCustom:
		start = s.ScheduledDate
	default:
		hour, ok := s.Session.Hour()
		if !ok {
			return TimeWindow{}, ErrInvalidSession
		}
		d := s.ScheduledDate.In(w.location())
		start = time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, w.location())
	}

	end := start.Add(exam.Duration())
	if s.WindowEnd != nil {
		end = *s.WindowEnd
	}
	return TimeWindow{Start: start, End: end}, nil
}

// IsOpen reports whether now falls inside the schedule's window.
func (w WindowEvaluator) IsOpen(s *model.ExamSchedule, exam *model.Exam, now time.Time) (bool, error) {
	win, err := w.WindowFor(s, exam)
	if err != nil {
		return false, err
	}
	return win.Contains(now), nil
}

// StartOfDay returns local midnight of t.
func (w WindowEvaluator) StartOfDay(t time.Time) time.Time {
	d := t.In(w.location())
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, w.location())
}

func (w WindowEvaluator) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}
