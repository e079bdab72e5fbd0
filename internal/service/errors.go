package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Error kinds. Every domain error below wraps exactly one of these, so callers
// can branch on either the kind or the specific error with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrInvalidState    = errors.New("invalid state")
	ErrNotAvailable    = errors.New("not available")
	ErrAlreadyExists   = errors.New("already exists")
	ErrPaymentRequired = errors.New("payment required")
)

// Domain errors.
var (
	ErrExamNotFound       = kindError(ErrNotFound, "exam not found")
	ErrCourseNotFound     = kindError(ErrNotFound, "course not found")
	ErrScheduleNotFound   = kindError(ErrNotFound, "schedule not found")
	ErrAttemptNotFound    = kindError(ErrNotFound, "attempt not found")
	ErrRequestNotFound    = kindError(ErrNotFound, "missed exam request not found")
	ErrNoExamForCourse    = kindError(ErrNotFound, "course has no approved active exam")
	ErrNotOwned           = kindError(ErrNotAuthorized, "exam does not belong to the instructor")
	ErrNotAttemptOwner    = kindError(ErrNotAuthorized, "attempt does not belong to the student")
	ErrNotEnrolled        = kindError(ErrInvalidState, "student is not enrolled in the exam's course")
	ErrPastDate           = kindError(ErrInvalidState, "schedule date is in the past")
	ErrInvalidSession     = kindError(ErrInvalidState, "invalid exam session")
	ErrAttemptInProgress  = kindError(ErrInvalidState, "an attempt already exists for this schedule")
	ErrPartAIncomplete    = kindError(ErrInvalidState, "part A has not been submitted")
	ErrPartACompleted     = kindError(ErrInvalidState, "part A has already been submitted")
	ErrPartBCompleted     = kindError(ErrInvalidState, "part B has already been submitted")
	ErrAttemptIncomplete  = kindError(ErrInvalidState, "attempt is not completed")
	ErrInternalAssigned   = kindError(ErrInvalidState, "internal marks have already been assigned")
	ErrUnknownQuestion    = kindError(ErrInvalidState, "answer references a question outside this part")
	ErrPublicationNotDue  = kindError(ErrInvalidState, "result publication is not yet due")
	ErrNotGraded          = kindError(ErrInvalidState, "attempt has not been graded")
	ErrAttemptNotFailed   = kindError(ErrInvalidState, "attempt is not a published failure")
	ErrWindowNotElapsed   = kindError(ErrInvalidState, "exam window has not elapsed")
	ErrAttemptRecorded    = kindError(ErrInvalidState, "an attempt was recorded for this exam")
	ErrRequestResolved    = kindError(ErrInvalidState, "missed exam request is already resolved")
	ErrInvalidWindow      = kindError(ErrInvalidState, "window end must be after its start")
	ErrMarksUnbalanced    = kindError(ErrInvalidState, "part A, part B and internal marks must add up to total marks")
	ErrInvalidQuestion    = kindError(ErrInvalidState, "part A questions need at least two options and one correct option")
	ErrPartMarksExceeded  = kindError(ErrInvalidState, "question points exceed the marks of their part")
	ErrExamReviewed       = kindError(ErrInvalidState, "exam has already been reviewed")
	ErrCourseNotCompleted = kindError(ErrInvalidState, "course is not completed")
	ErrExamNotAvailable   = kindError(ErrNotAvailable, "exam is not available")
	ErrNoSchedule         = kindError(ErrNotAvailable, "no exam schedule assigned")
	ErrOutsideWindow      = kindError(ErrNotAvailable, "exam window is not open")
	ErrExamNotScheduled   = kindError(ErrNotAvailable, "exam has no scheduled start")
	ErrResultNotPublished = kindError(ErrNotAvailable, "result is not published yet")
	ErrAttemptTaken       = kindError(ErrAlreadyExists, "exam was already taken")
	ErrReExamExists       = kindError(ErrAlreadyExists, "a re-exam was already created for this attempt")
	ErrReExamPaid         = kindError(ErrAlreadyExists, "re-exam is already paid")
	ErrPaymentFailed      = kindError(ErrPaymentRequired, "payment was declined")
	ErrReExamUnpaid       = kindError(ErrPaymentRequired, "no completed re-exam payment")
)

type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

func kindError(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

// notFound translates a missing row into the given domain error and wraps
// anything else with context.
func notFound(err, domain error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain
	}
	return fmt.Errorf("%s: %w", what, err)
}
