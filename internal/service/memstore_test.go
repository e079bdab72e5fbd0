package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/model"
)

// memDB backs the in-memory stores. Stores hand out copies, like a database
// would, so services must write changes back through Update.
type memDB struct {
	mu sync.Mutex

	exams        map[uuid.UUID]model.Exam
	courses      map[uuid.UUID]model.Course
	enrollments  map[enrollKey]bool
	questions    []model.ExamQuestion
	schedules    map[uuid.UUID]model.ExamSchedule
	attempts     map[uuid.UUID]model.ExamAttempt
	answers      map[answerKey]model.ExamAnswer
	requests     map[uuid.UUID]model.MissedExamRequest
	payments     []model.ReExamPayment
	certificates map[uuid.UUID]model.Certificate
	achievements map[achievementKey]model.StudentAchievement

	// faults maps "store.Method" to an error that method returns.
	faults map[string]error
}

type enrollKey struct {
	student int
	course  uuid.UUID
}

type answerKey struct {
	attempt  uuid.UUID
	question uuid.UUID
}

type achievementKey struct {
	student int
	code    model.AchievementCode
	ref     uuid.UUID
}

func newMemDB() *memDB {
	return &memDB{
		exams:        map[uuid.UUID]model.Exam{},
		courses:      map[uuid.UUID]model.Course{},
		enrollments:  map[enrollKey]bool{},
		schedules:    map[uuid.UUID]model.ExamSchedule{},
		attempts:     map[uuid.UUID]model.ExamAttempt{},
		answers:      map[answerKey]model.ExamAnswer{},
		requests:     map[uuid.UUID]model.MissedExamRequest{},
		certificates: map[uuid.UUID]model.Certificate{},
		achievements: map[achievementKey]model.StudentAchievement{},
		faults:       map[string]error{},
	}
}

// ----------------------------------------------------------------
// Transactor
// ----------------------------------------------------------------

// memTx runs transactions one at a time against a snapshot of memDB and
// restores the snapshot when fn fails.
type memTx struct {
	db     *memDB
	serial sync.Mutex

	mu    sync.Mutex
	locks []string
}

type memTxKey struct{}

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	t.serial.Lock()
	defer t.serial.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, t)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

func (t *memTx) Lock(ctx context.Context, key string) error {
	if ctx.Value(memTxKey{}) == nil {
		return fmt.Errorf("advisory lock %q requires a transaction", key)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locks = append(t.locks, key)
	return nil
}

func (t *memTx) heldLocks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.locks...)
}

type memSnapshot struct {
	exams        map[uuid.UUID]model.Exam
	courses      map[uuid.UUID]model.Course
	enrollments  map[enrollKey]bool
	questions    []model.ExamQuestion
	schedules    map[uuid.UUID]model.ExamSchedule
	attempts     map[uuid.UUID]model.ExamAttempt
	answers      map[answerKey]model.ExamAnswer
	requests     map[uuid.UUID]model.MissedExamRequest
	payments     []model.ReExamPayment
	certificates map[uuid.UUID]model.Certificate
	achievements map[achievementKey]model.StudentAchievement
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		exams:        maps.Clone(db.exams),
		courses:      maps.Clone(db.courses),
		enrollments:  maps.Clone(db.enrollments),
		questions:    slices.Clone(db.questions),
		schedules:    maps.Clone(db.schedules),
		attempts:     maps.Clone(db.attempts),
		answers:      maps.Clone(db.answers),
		requests:     maps.Clone(db.requests),
		payments:     slices.Clone(db.payments),
		certificates: maps.Clone(db.certificates),
		achievements: maps.Clone(db.achievements),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.exams = s.exams
	db.courses = s.courses
	db.enrollments = s.enrollments
	db.questions = s.questions
	db.schedules = s.schedules
	db.attempts = s.attempts
	db.answers = s.answers
	db.requests = s.requests
	db.payments = s.payments
	db.certificates = s.certificates
	db.achievements = s.achievements
}

// fault returns the error injected for op, if any.
func (db *memDB) fault(op string) error {
	return db.faults[op]
}

// ----------------------------------------------------------------
// Exams, courses and enrollments
// ----------------------------------------------------------------

type memExams struct{ db *memDB }

func (s memExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (s memExams) GetActiveByCourse(_ context.Context, courseID uuid.UUID) (*model.Exam, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.exams {
		if e.CourseID == courseID && e.Available() {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memExams) Create(_ context.Context, e *model.Exam) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e.ID = uuid.New()
	s.db.exams[e.ID] = *e
	return nil
}

func (s memExams) UpdateApproval(_ context.Context, id uuid.UUID, status model.ApprovalStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	e, ok := s.db.exams[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.ApprovalStatus = status
	s.db.exams[id] = e
	return nil
}

func (s memExams) ListByInstructor(_ context.Context, instructorID, limit, offset int) ([]model.Exam, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Exam
	for _, e := range s.db.exams {
		if instructorID == 0 || e.InstructorID == instructorID {
			out = append(out, e)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], total, nil
}

type memCourses struct{ db *memDB }

func (s memCourses) GetByID(_ context.Context, id uuid.UUID) (*model.Course, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

type memEnrollments struct{ db *memDB }

func (s memEnrollments) IsEnrolled(_ context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.enrollments[enrollKey{studentID, courseID}]
	return ok, nil
}

func (s memEnrollments) IsCompleted(_ context.Context, studentID int, courseID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.enrollments[enrollKey{studentID, courseID}], nil
}

func (s memEnrollments) MarkCompleted(_ context.Context, studentID int, courseID uuid.UUID, _ time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := enrollKey{studentID, courseID}
	if _, ok := s.db.enrollments[key]; !ok {
		return pgx.ErrNoRows
	}
	s.db.enrollments[key] = true
	return nil
}

func (s memEnrollments) ListStudentIDs(_ context.Context, courseID uuid.UUID) ([]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ids []int
	for k := range s.db.enrollments {
		if k.course == courseID {
			ids = append(ids, k.student)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// ----------------------------------------------------------------
// Questions
// ----------------------------------------------------------------

type memQuestions struct{ db *memDB }

func (s memQuestions) ListByExam(_ context.Context, examID uuid.UUID) ([]model.ExamQuestion, error) {
	return s.list(examID, "")
}

func (s memQuestions) ListByExamPart(_ context.Context, examID uuid.UUID, part model.ExamPart) ([]model.ExamQuestion, error) {
	return s.list(examID, part)
}

func (s memQuestions) list(examID uuid.UUID, part model.ExamPart) ([]model.ExamQuestion, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ExamQuestion
	for _, q := range s.db.questions {
		if q.ExamID == examID && (part == "" || q.Part == part) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s memQuestions) Create(_ context.Context, q *model.ExamQuestion) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q.ID = uuid.New()
	for i := range q.Options {
		q.Options[i].ID = uuid.New()
		q.Options[i].QuestionID = q.ID
	}
	s.db.questions = append(s.db.questions, *q)
	return nil
}

// ----------------------------------------------------------------
// Schedules
// ----------------------------------------------------------------

type memSchedules struct{ db *memDB }

func (s memSchedules) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSchedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sc, ok := s.db.schedules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sc, nil
}

func (s memSchedules) GetByStudentExam(_ context.Context, examID uuid.UUID, studentID int) (*model.ExamSchedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if sc, ok := s.find(examID, studentID); ok {
		return &sc, nil
	}
	return nil, pgx.ErrNoRows
}

func (s memSchedules) find(examID uuid.UUID, studentID int) (model.ExamSchedule, bool) {
	for _, sc := range s.db.schedules {
		if sc.ExamID == examID && sc.StudentID == studentID {
			return sc, true
		}
	}
	return model.ExamSchedule{}, false
}

func (s memSchedules) Upsert(_ context.Context, sc *model.ExamSchedule) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if existing, ok := s.find(sc.ExamID, sc.StudentID); ok {
		sc.ID = existing.ID
	} else {
		sc.ID = uuid.New()
	}
	s.db.schedules[sc.ID] = *sc
	return nil
}

func (s memSchedules) InsertIfAbsent(_ context.Context, sc *model.ExamSchedule) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.find(sc.ExamID, sc.StudentID); ok {
		return false, nil
	}
	sc.ID = uuid.New()
	s.db.schedules[sc.ID] = *sc
	return true, nil
}

func (s memSchedules) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.schedules[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.db.schedules, id)
	return nil
}

func (s memSchedules) ListByExam(_ context.Context, examID uuid.UUID) ([]model.ExamSchedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ExamSchedule
	for _, sc := range s.db.schedules {
		if sc.ExamID == examID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s memSchedules) ListByStudent(_ context.Context, studentID int) ([]model.ExamSchedule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ExamSchedule
	for _, sc := range s.db.schedules {
		if sc.StudentID == studentID {
			out = append(out, sc)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------
// Attempts and answers
// ----------------------------------------------------------------

type memAttempts struct{ db *memDB }

func (s memAttempts) Create(_ context.Context, a *model.ExamAttempt) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a.ID = uuid.New()
	s.db.attempts[a.ID] = *a
	return nil
}

func (s memAttempts) GetByID(_ context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (s memAttempts) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return s.GetByID(ctx, id)
}

func (s memAttempts) GetOpen(_ context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.attempts {
		if a.ExamID == examID && a.StudentID == studentID && !a.IsCompleted {
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memAttempts) GetByOriginal(_ context.Context, originalID uuid.UUID) (*model.ExamAttempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.attempts {
		if a.OriginalAttemptID != nil && *a.OriginalAttemptID == originalID {
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s memAttempts) ExistsForStudentExam(_ context.Context, examID uuid.UUID, studentID int) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s memAttempts) Update(_ context.Context, a *model.ExamAttempt) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault("attempts.Update"); err != nil {
		return err
	}
	if _, ok := s.db.attempts[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.db.attempts[a.ID] = *a
	return nil
}

func (s memAttempts) ListByStudent(_ context.Context, studentID int) ([]model.ExamAttempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ExamAttempt
	for _, a := range s.db.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memAttempts) ListPendingInternal(_ context.Context, instructorID int) ([]model.ExamAttempt, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ExamAttempt
	for _, a := range s.db.attempts {
		if a.IsCompleted && !a.InternalAssigned && s.db.exams[a.ExamID].InstructorID == instructorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memAttempts) ListDueForPublication(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []uuid.UUID
	for _, a := range s.db.attempts {
		if a.InternalAssigned && !a.ResultPublished && a.PublishDueAt != nil && !a.PublishDueAt.After(now) {
			out = append(out, a.ID)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memAnswers struct{ db *memDB }

func (s memAnswers) ReplacePart(_ context.Context, attemptID uuid.UUID, part model.ExamPart, answers []model.ExamAnswer) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault("answers.ReplacePart"); err != nil {
		return err
	}
	for k, a := range s.db.answers {
		if k.attempt == attemptID && a.Part == part {
			delete(s.db.answers, k)
		}
	}
	for _, a := range answers {
		a.ID = uuid.New()
		s.db.answers[answerKey{a.AttemptID, a.QuestionID}] = a
	}
	return nil
}

func (s memAnswers) Upsert(_ context.Context, answers []model.ExamAnswer) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range answers {
		key := answerKey{a.AttemptID, a.QuestionID}
		if existing, ok := s.db.answers[key]; ok {
			a.ID = existing.ID
		} else {
			a.ID = uuid.New()
		}
		s.db.answers[key] = a
	}
	return nil
}

func (s memAnswers) ListByAttemptPart(_ context.Context, attemptID uuid.UUID, part model.ExamPart) ([]model.ExamAnswer, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.ExamAnswer
	for k, a := range s.db.answers {
		if k.attempt == attemptID && a.Part == part {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memAnswers) SetPoints(_ context.Context, attemptID, questionID uuid.UUID, points int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := answerKey{attemptID, questionID}
	a, ok := s.db.answers[key]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Points = points
	s.db.answers[key] = a
	return nil
}

// ----------------------------------------------------------------
// Missed exams, payments and rewards
// ----------------------------------------------------------------

type memRequests struct{ db *memDB }

func (s memRequests) Create(_ context.Context, r *model.MissedExamRequest) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.requests {
		if existing.ExamID == r.ExamID && existing.StudentID == r.StudentID {
			return false, nil
		}
	}
	r.ID = uuid.New()
	s.db.requests[r.ID] = *r
	return true, nil
}

func (s memRequests) GetForUpdate(_ context.Context, id uuid.UUID) (*model.MissedExamRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &r, nil
}

func (s memRequests) Resolve(_ context.Context, r *model.MissedExamRequest) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.requests[r.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.db.requests[r.ID] = *r
	return nil
}

func (s memRequests) ListPendingByInstructor(_ context.Context, instructorID int) ([]model.MissedExamRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.MissedExamRequest
	for _, r := range s.db.requests {
		if r.Status == model.RequestStatusPending && s.db.exams[r.ExamID].InstructorID == instructorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s memRequests) ListByStudent(_ context.Context, studentID int) ([]model.MissedExamRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.MissedExamRequest
	for _, r := range s.db.requests {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memPayments struct{ db *memDB }

func (s memPayments) Create(_ context.Context, p *model.ReExamPayment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.Status == model.PaymentStatusCompleted {
		for _, existing := range s.db.payments {
			if existing.StudentID == p.StudentID && existing.AttemptID == p.AttemptID &&
				existing.Status == model.PaymentStatusCompleted {
				return errors.New("duplicate completed payment")
			}
		}
	}
	p.ID = uuid.New()
	s.db.payments = append(s.db.payments, *p)
	return nil
}

func (s memPayments) HasCompleted(_ context.Context, studentID int, attemptID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.payments {
		if p.StudentID == studentID && p.AttemptID == attemptID && p.Status == model.PaymentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

type memCertificates struct{ db *memDB }

func (s memCertificates) Create(_ context.Context, c *model.Certificate) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.certificates[c.AttemptID]; ok {
		return false, nil
	}
	c.ID = uuid.New()
	s.db.certificates[c.AttemptID] = *c
	return true, nil
}

func (s memCertificates) GetByAttempt(_ context.Context, attemptID uuid.UUID) (*model.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.certificates[attemptID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (s memCertificates) ListByStudent(_ context.Context, studentID int) ([]model.Certificate, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Certificate
	for _, c := range s.db.certificates {
		if c.StudentID == studentID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memAchievements struct{ db *memDB }

func (s memAchievements) Award(_ context.Context, a *model.StudentAchievement) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := achievementKey{a.StudentID, a.Code, a.ReferenceID}
	if _, ok := s.db.achievements[key]; ok {
		return false, nil
	}
	a.ID = uuid.New()
	s.db.achievements[key] = *a
	return true, nil
}

func (s memAchievements) ListByStudent(_ context.Context, studentID int) ([]model.StudentAchievement, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.StudentAchievement
	for _, a := range s.db.achievements {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------
// Collaborators
// ----------------------------------------------------------------

type memQueue struct {
	mu      sync.Mutex
	entries map[uuid.UUID]time.Time
}

func (q *memQueue) Enqueue(_ context.Context, attemptID uuid.UUID, dueAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[attemptID] = dueAt
	return nil
}

type stubProcessor struct {
	mu      sync.Mutex
	decline bool
	charged []float64
}

func (p *stubProcessor) Charge(_ context.Context, amount float64, _ model.PaymentMethod) (model.PaymentResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charged = append(p.charged, amount)
	if p.decline {
		return model.PaymentResult{Success: false, Message: "declined"}, nil
	}
	return model.PaymentResult{Success: true, TransactionID: "TXN-" + uuid.NewString()}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	notified []uuid.UUID
}

func (n *recordingNotifier) NotifyPublished(_ context.Context, a *model.ExamAttempt) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, a.ID)
	return nil
}

// ----------------------------------------------------------------
// Harness
// ----------------------------------------------------------------

const (
	testInstructor = 7
	testStudent    = 42
	testDelay      = 3 * time.Hour
)

// harness wires every service to one memDB and a manual clock. The clock
// starts at 2026-03-02 09:30 UTC, inside the morning session of that day.
type harness struct {
	db       *memDB
	tx       *memTx
	clock    *clock.Manual
	queue    *memQueue
	payments *stubProcessor
	notifier *recordingNotifier

	exams        *ExamService
	schedules    *ScheduleService
	attempts     *AttemptService
	publications *PublicationService
	reExams      *ReExamService
	missed       *MissedExamService
	achievements *AchievementService
	certificates *CertificateService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := newMemDB()
	h := &harness{
		db:       db,
		tx:       &memTx{db: db},
		clock:    clock.NewManual(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)),
		queue:    &memQueue{entries: map[uuid.UUID]time.Time{}},
		payments: &stubProcessor{},
		notifier: &recordingNotifier{},
	}
	log := zerolog.Nop()
	window := NewWindowEvaluator(time.UTC)

	h.achievements = NewAchievementService(memAchievements{db}, h.clock, log)
	h.certificates = NewCertificateService(memCertificates{db}, h.clock, log)
	h.exams = NewExamService(memExams{db}, memCourses{db}, memQuestions{db}, log)
	h.schedules = NewScheduleService(h.tx, memExams{db}, memSchedules{db}, memAttempts{db},
		memEnrollments{db}, h.achievements, window, h.clock, log)
	h.attempts = NewAttemptService(h.tx, memExams{db}, memQuestions{db}, memSchedules{db},
		memAttempts{db}, memAnswers{db}, h.queue, window, h.clock, testDelay, log)
	// Keep the bank order so tests can reason about the paper.
	h.attempts.shuffle = func([]uuid.UUID) {}
	h.publications = NewPublicationService(h.tx, memExams{db}, memAttempts{db},
		h.achievements, h.certificates, h.notifier, h.clock, log)
	h.reExams = NewReExamService(h.tx, memExams{db}, memAttempts{db}, memPayments{db},
		h.payments, h.attempts, 25, log)
	h.missed = NewMissedExamService(h.tx, memExams{db}, memEnrollments{db}, memSchedules{db}, memAttempts{db},
		memRequests{db}, window, h.clock, log)
	return h
}

// fixture is an approved exam worth 10 marks: Part A 4 (two 2-point
// questions), Part B 4 (one question), internal 2, pass mark 50%.
type fixture struct {
	course   uuid.UUID
	exam     uuid.UUID
	partA    [2]model.ExamQuestion
	partB    model.ExamQuestion
	schedule uuid.UUID
}

func (h *harness) seedExam(t *testing.T) fixture {
	t.Helper()
	var f fixture

	f.course = uuid.New()
	h.db.courses[f.course] = model.Course{ID: f.course, Title: "Physics", InstructorID: testInstructor}
	h.db.enrollments[enrollKey{testStudent, f.course}] = false

	f.exam = uuid.New()
	h.db.exams[f.exam] = model.Exam{
		ID:                f.exam,
		CourseID:          f.course,
		InstructorID:      testInstructor,
		Title:             "Physics Final",
		TotalMarks:        10,
		PartAMarks:        4,
		PartBMarks:        4,
		InternalMarks:     2,
		PassingPercentage: 50,
		DurationMinutes:   60,
		ApprovalStatus:    model.ApprovalStatusApproved,
		IsActive:          true,
	}

	for i := range f.partA {
		q := model.ExamQuestion{
			ID:       uuid.New(),
			ExamID:   f.exam,
			Part:     model.PartA,
			Points:   2,
			OrderNum: i + 1,
		}
		q.Options = []model.ExamQuestionOption{
			{ID: uuid.New(), QuestionID: q.ID, OptionText: "right", IsCorrect: true, OrderNum: 1},
			{ID: uuid.New(), QuestionID: q.ID, OptionText: "wrong", OrderNum: 2},
		}
		f.partA[i] = q
		h.db.questions = append(h.db.questions, q)
	}
	f.partB = model.ExamQuestion{ID: uuid.New(), ExamID: f.exam, Part: model.PartB, Points: 4, OrderNum: 1}
	h.db.questions = append(h.db.questions, f.partB)

	f.schedule = uuid.New()
	h.db.schedules[f.schedule] = model.ExamSchedule{
		ID:            f.schedule,
		ExamID:        f.exam,
		StudentID:     testStudent,
		ScheduledDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Session:       model.SessionMorning,
		IsAssigned:    true,
	}
	return f
}

func (f fixture) correct(i int) *uuid.UUID {
	id := f.partA[i].Options[0].ID
	return &id
}

func (f fixture) wrong(i int) *uuid.UUID {
	id := f.partA[i].Options[1].ID
	return &id
}
