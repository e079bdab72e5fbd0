package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-lms/internal/model"
)

// Transactor runs a unit of work in one database transaction. Stores called
// with the context handed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Lock serializes concurrent transactions on key until the surrounding
	// transaction ends.
	Lock(ctx context.Context, key string) error
}

// ExamStore persists exams.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetActiveByCourse(ctx context.Context, courseID uuid.UUID) (*model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	UpdateApproval(ctx context.Context, id uuid.UUID, status model.ApprovalStatus) error
	ListByInstructor(ctx context.Context, instructorID, limit, offset int) ([]model.Exam, int, error)
}

// CourseStore reads the course catalog.
type CourseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
}

// EnrollmentStore answers enrollment questions for a course.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error)
	IsCompleted(ctx context.Context, studentID int, courseID uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, studentID int, courseID uuid.UUID, at time.Time) error
	ListStudentIDs(ctx context.Context, courseID uuid.UUID) ([]int, error)
}

// QuestionStore persists an exam's question bank. Listings include options.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamQuestion, error)
	ListByExamPart(ctx context.Context, examID uuid.UUID, part model.ExamPart) ([]model.ExamQuestion, error)
	Create(ctx context.Context, q *model.ExamQuestion) error
}

// ScheduleStore persists per-student exam schedules.
type ScheduleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSchedule, error)
	GetByStudentExam(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSchedule, error)
	// Upsert inserts or overwrites the (exam, student) row in place.
	Upsert(ctx context.Context, s *model.ExamSchedule) error
	// InsertIfAbsent inserts unless a row exists; it reports whether it inserted.
	InsertIfAbsent(ctx context.Context, s *model.ExamSchedule) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamSchedule, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.ExamSchedule, error)
}

// AttemptStore persists exam attempts.
type AttemptStore interface {
	Create(ctx context.Context, a *model.ExamAttempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error)
	// GetForUpdate row-locks the attempt for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error)
	GetOpen(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error)
	GetByOriginal(ctx context.Context, originalID uuid.UUID) (*model.ExamAttempt, error)
	ExistsForStudentExam(ctx context.Context, examID uuid.UUID, studentID int) (bool, error)
	Update(ctx context.Context, a *model.ExamAttempt) error
	ListByStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error)
	ListPendingInternal(ctx context.Context, instructorID int) ([]model.ExamAttempt, error)
	ListDueForPublication(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// AnswerStore persists per-question answers of an attempt.
type AnswerStore interface {
	// ReplacePart deletes every answer of the attempt's part, then inserts answers.
	ReplacePart(ctx context.Context, attemptID uuid.UUID, part model.ExamPart, answers []model.ExamAnswer) error
	Upsert(ctx context.Context, answers []model.ExamAnswer) error
	ListByAttemptPart(ctx context.Context, attemptID uuid.UUID, part model.ExamPart) ([]model.ExamAnswer, error)
	SetPoints(ctx context.Context, attemptID, questionID uuid.UUID, points int) error
}

// MissedExamStore persists missed-exam requests.
type MissedExamStore interface {
	// Create inserts the request; it reports false when one already exists.
	Create(ctx context.Context, r *model.MissedExamRequest) (bool, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.MissedExamRequest, error)
	Resolve(ctx context.Context, r *model.MissedExamRequest) error
	ListPendingByInstructor(ctx context.Context, instructorID int) ([]model.MissedExamRequest, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.MissedExamRequest, error)
}

// PaymentStore persists re-exam payments.
type PaymentStore interface {
	Create(ctx context.Context, p *model.ReExamPayment) error
	HasCompleted(ctx context.Context, studentID int, attemptID uuid.UUID) (bool, error)
}

// CertificateStore persists issued certificates.
type CertificateStore interface {
	// Create inserts the certificate; it reports false when the attempt already has one.
	Create(ctx context.Context, c *model.Certificate) (bool, error)
	GetByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Certificate, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Certificate, error)
}

// AchievementStore persists awarded achievements.
type AchievementStore interface {
	// Award inserts the achievement; it reports false when it was already awarded.
	Award(ctx context.Context, a *model.StudentAchievement) (bool, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.StudentAchievement, error)
}

// CertificateIssuer issues a certificate for a passing, published attempt.
type CertificateIssuer interface {
	Generate(ctx context.Context, studentID int, courseID, attemptID uuid.UUID) (*model.Certificate, error)
}

// AchievementAwarder evaluates achievement rules. Either courseID or attempt
// may be nil.
type AchievementAwarder interface {
	Evaluate(ctx context.Context, studentID int, courseID *uuid.UUID, attempt *model.ExamAttempt) ([]model.AchievementCode, error)
}

// PaymentProcessor charges a student. The result is opaque to the engine.
type PaymentProcessor interface {
	Charge(ctx context.Context, amount float64, method model.PaymentMethod) (model.PaymentResult, error)
}

// PublicationQueue is the fast lane for due publications. Losing an entry is
// tolerated: the periodic database sweep publishes it anyway.
type PublicationQueue interface {
	Enqueue(ctx context.Context, attemptID uuid.UUID, dueAt time.Time) error
}

// ResultNotifier tells a connected student that a result was published.
type ResultNotifier interface {
	NotifyPublished(ctx context.Context, attempt *model.ExamAttempt) error
}
