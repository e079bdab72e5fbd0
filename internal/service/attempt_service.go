package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// AttemptService owns the lifecycle of an exam attempt from start through
// internal grading. Publication is handed off to the PublicationQueue.
type AttemptService struct {
	tx        Transactor
	exams     ExamStore
	questions QuestionStore
	schedules ScheduleStore
	attempts  AttemptStore
	answers   AnswerStore
	queue     PublicationQueue
	window    WindowEvaluator
	clock     clock.Clock
	delay     time.Duration
	shuffle   func([]uuid.UUID)
	log       zerolog.Logger
}

// NewAttemptService creates a new AttemptService. delay is the time between
// internal grading and result publication.
func NewAttemptService(
	tx Transactor,
	exams ExamStore,
	questions QuestionStore,
	schedules ScheduleStore,
	attempts AttemptStore,
	answers AnswerStore,
	queue PublicationQueue,
	window WindowEvaluator,
	clk clock.Clock,
	delay time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		tx:        tx,
		exams:     exams,
		questions: questions,
		schedules: schedules,
		attempts:  attempts,
		answers:   answers,
		queue:     queue,
		window:    window,
		clock:     clk,
		delay:     delay,
		shuffle: func(ids []uuid.UUID) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
		log: log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start opens an attempt inside the student's schedule window. An attempt that
// is still open is returned as is; created reports whether a row was inserted.
func (s *AttemptService) Start(ctx context.Context, studentID int, examID uuid.UUID) (attempt *model.ExamAttempt, created bool, err error) {
	ctx, span := startSpan(ctx, "attempt.start",
		attribute.String("attempt.exam_id", examID.String()),
		attribute.Int("attempt.student_id", studentID),
	)
	defer func() { endSpan(span, err) }()

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, false, notFound(err, ErrExamNotFound, "get exam")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.tx.Lock(ctx, config.CacheKey.AttemptLockKey(examID.String(), studentID)); err != nil {
			return err
		}

		open, err := s.attempts.GetOpen(ctx, examID, studentID)
		if err == nil {
			attempt = open
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("get open attempt: %w", err)
		}
		if !exam.Available() {
			return ErrExamNotAvailable
		}

		taken, err := s.attempts.ExistsForStudentExam(ctx, examID, studentID)
		if err != nil {
			return fmt.Errorf("check attempts: %w", err)
		}
		if taken {
			return ErrAttemptTaken
		}

		sched, err := s.schedules.GetByStudentExam(ctx, examID, studentID)
		if err != nil {
			return notFound(err, ErrNoSchedule, "get schedule")
		}
		if !sched.IsAssigned {
			return ErrNoSchedule
		}
		inWindow, err := s.window.IsOpen(sched, exam, s.clock.Now())
		if err != nil {
			return err
		}
		if !inWindow {
			return ErrOutsideWindow
		}

		attempt, err = s.create(ctx, exam, studentID, sched.ID, nil)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		observability.AttemptTransitions().WithLabelValues("start").Inc()
		s.log.Info().
			Str("attempt_id", attempt.ID.String()).
			Str("exam_id", examID.String()).
			Int("student_id", studentID).
			Msg("Attempt started")
	}
	return attempt, created, nil
}

// create inserts a new attempt with a freshly shuffled question order. It
// must run inside a transaction holding the (student, exam) lock.
func (s *AttemptService) create(ctx context.Context, exam *model.Exam, studentID int, scheduleID uuid.UUID, originalID *uuid.UUID) (*model.ExamAttempt, error) {
	questions, err := s.questions.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	order := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		order[i] = q.ID
	}
	s.shuffle(order)

	attempt := &model.ExamAttempt{
		ExamID:            exam.ID,
		StudentID:         studentID,
		ScheduleID:        scheduleID,
		OriginalAttemptID: originalID,
		QuestionOrder:     order,
		StartedAt:         s.clock.Now(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	return attempt, nil
}

// GetPaper returns the attempt's questions in their persisted order, without
// correctness flags.
func (s *AttemptService) GetPaper(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.ExamPaper, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	byID := make(map[uuid.UUID]model.ExamQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	paper := &model.ExamPaper{
		AttemptID:       attempt.ID,
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]model.QuestionForStudent, 0, len(questions)),
	}
	for _, id := range attempt.QuestionOrder {
		if q, ok := byID[id]; ok {
			paper.Questions = append(paper.Questions, toStudentQuestion(q))
		}
	}
	return paper, nil
}

func toStudentQuestion(q model.ExamQuestion) model.QuestionForStudent {
	out := model.QuestionForStudent{
		ID:           q.ID,
		Part:         q.Part,
		QuestionText: q.QuestionText,
		Points:       q.Points,
	}
	for _, o := range q.Options {
		out.Options = append(out.Options, model.OptionForStudent{ID: o.ID, OptionText: o.OptionText})
	}
	return out
}

// SubmitPartA scores every Part A question against the submission and
// replaces the attempt's Part A answers wholesale.
func (s *AttemptService) SubmitPartA(ctx context.Context, studentID int, attemptID uuid.UUID, inputs []model.PartAAnswerInput) (attempt *model.ExamAttempt, err error) {
	ctx, span := startSpan(ctx, "attempt.submit_part_a", attribute.String("attempt.id", attemptID.String()))
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound, "get attempt")
		}
		if a.StudentID != studentID {
			return ErrNotAttemptOwner
		}
		if a.PartACompleted {
			return ErrPartACompleted
		}

		questions, err := s.questions.ListByExamPart(ctx, a.ExamID, model.PartA)
		if err != nil {
			return fmt.Errorf("list part A questions: %w", err)
		}
		selected, err := partASelections(questions, inputs)
		if err != nil {
			return err
		}

		answers, score := ScorePartA(questions, selected)
		for i := range answers {
			answers[i].AttemptID = a.ID
		}
		if err := s.answers.ReplacePart(ctx, a.ID, model.PartA, answers); err != nil {
			return fmt.Errorf("replace part A answers: %w", err)
		}

		a.PartAScore = score
		a.PartACompleted = true
		if err := s.attempts.Update(ctx, a); err != nil {
			return fmt.Errorf("update attempt: %w", err)
		}
		attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AttemptTransitions().WithLabelValues("submit_part_a").Inc()
	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("part_a_score", attempt.PartAScore).
		Msg("Part A submitted")
	return attempt, nil
}

func partASelections(questions []model.ExamQuestion, inputs []model.PartAAnswerInput) (map[uuid.UUID]*uuid.UUID, error) {
	valid := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		valid[q.ID] = struct{}{}
	}
	selected := make(map[uuid.UUID]*uuid.UUID, len(inputs))
	for _, in := range inputs {
		if _, ok := valid[in.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, in.QuestionID)
		}
		selected[in.QuestionID] = in.OptionID
	}
	return selected, nil
}

// SubmitPartB stores one free-text answer per Part B question and completes
// the attempt. Part B points stay 0 until an instructor grades them.
func (s *AttemptService) SubmitPartB(ctx context.Context, studentID int, attemptID uuid.UUID, inputs []model.PartBAnswerInput) (attempt *model.ExamAttempt, err error) {
	ctx, span := startSpan(ctx, "attempt.submit_part_b", attribute.String("attempt.id", attemptID.String()))
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound, "get attempt")
		}
		if a.StudentID != studentID {
			return ErrNotAttemptOwner
		}
		if !a.PartACompleted {
			return ErrPartAIncomplete
		}
		if a.PartBCompleted {
			return ErrPartBCompleted
		}

		questions, err := s.questions.ListByExamPart(ctx, a.ExamID, model.PartB)
		if err != nil {
			return fmt.Errorf("list part B questions: %w", err)
		}
		texts, err := partBTexts(questions, inputs)
		if err != nil {
			return err
		}

		answers := make([]model.ExamAnswer, 0, len(questions))
		for _, q := range questions {
			answers = append(answers, model.ExamAnswer{
				AttemptID:  a.ID,
				QuestionID: q.ID,
				Part:       model.PartB,
				AnswerText: texts[q.ID],
			})
		}
		if err := s.answers.Upsert(ctx, answers); err != nil {
			return fmt.Errorf("upsert part B answers: %w", err)
		}

		now := s.clock.Now()
		a.PartBCompleted = true
		a.IsCompleted = true
		a.CompletedAt = &now
		if err := s.attempts.Update(ctx, a); err != nil {
			return fmt.Errorf("update attempt: %w", err)
		}
		attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AttemptTransitions().WithLabelValues("submit_part_b").Inc()
	s.log.Info().Str("attempt_id", attemptID.String()).Msg("Part B submitted, attempt completed")
	return attempt, nil
}

func partBTexts(questions []model.ExamQuestion, inputs []model.PartBAnswerInput) (map[uuid.UUID]string, error) {
	valid := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		valid[q.ID] = struct{}{}
	}
	texts := make(map[uuid.UUID]string, len(inputs))
	for _, in := range inputs {
		if _, ok := valid[in.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, in.QuestionID)
		}
		texts[in.QuestionID] = in.Text
	}
	return texts, nil
}

// GetGradingView returns an attempt of the instructor's exam with its bank and answers.
func (s *AttemptService) GetGradingView(ctx context.Context, instructorID int, attemptID uuid.UUID) (*model.GradingView, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound, "get attempt")
	}
	if _, err := s.ownedExam(ctx, instructorID, attempt.ExamID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	partA, err := s.answers.ListByAttemptPart(ctx, attemptID, model.PartA)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	partB, err := s.answers.ListByAttemptPart(ctx, attemptID, model.PartB)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &model.GradingView{
		Attempt:   attempt,
		Questions: questions,
		Answers:   append(partA, partB...),
	}, nil
}

// GradePartB records per-question Part B points, each clamped to the
// question's value, and recomputes the Part B score.
func (s *AttemptService) GradePartB(ctx context.Context, instructorID int, attemptID uuid.UUID, grades []model.PartBGradeInput) (attempt *model.ExamAttempt, err error) {
	ctx, span := startSpan(ctx, "attempt.grade_part_b",
		attribute.String("attempt.id", attemptID.String()),
		attribute.Int("grading.instructor_id", instructorID),
	)
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound, "get attempt")
		}
		exam, err := s.ownedExam(ctx, instructorID, a.ExamID)
		if err != nil {
			return err
		}
		if !a.PartBCompleted {
			return ErrAttemptIncomplete
		}
		if a.InternalAssigned {
			return ErrInternalAssigned
		}

		questions, err := s.questions.ListByExamPart(ctx, a.ExamID, model.PartB)
		if err != nil {
			return fmt.Errorf("list part B questions: %w", err)
		}
		points := make(map[uuid.UUID]int, len(questions))
		for _, q := range questions {
			points[q.ID] = q.Points
		}
		for _, g := range grades {
			ceiling, ok := points[g.QuestionID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownQuestion, g.QuestionID)
			}
			if err := s.answers.SetPoints(ctx, a.ID, g.QuestionID, clamp(g.Points, 0, ceiling)); err != nil {
				return fmt.Errorf("set points: %w", err)
			}
		}

		answers, err := s.answers.ListByAttemptPart(ctx, a.ID, model.PartB)
		if err != nil {
			return fmt.Errorf("list part B answers: %w", err)
		}
		sum := 0
		for _, ans := range answers {
			sum += ans.Points
		}
		a.PartBScore = clamp(sum, 0, exam.PartBMarks)
		if err := s.attempts.Update(ctx, a); err != nil {
			return fmt.Errorf("update attempt: %w", err)
		}
		attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AttemptTransitions().WithLabelValues("grade_part_b").Inc()
	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("part_b_score", attempt.PartBScore).
		Msg("Part B graded")
	return attempt, nil
}

// AssignInternal sets the internal-assessment marks, computes the composite
// result and schedules publication. It can run once per attempt.
func (s *AttemptService) AssignInternal(ctx context.Context, instructorID int, attemptID uuid.UUID, marks int) (attempt *model.ExamAttempt, err error) {
	ctx, span := startSpan(ctx, "attempt.assign_internal",
		attribute.String("attempt.id", attemptID.String()),
		attribute.Int("grading.instructor_id", instructorID),
	)
	defer func() { endSpan(span, err) }()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.attempts.GetForUpdate(ctx, attemptID)
		if err != nil {
			return notFound(err, ErrAttemptNotFound, "get attempt")
		}
		exam, err := s.ownedExam(ctx, instructorID, a.ExamID)
		if err != nil {
			return err
		}
		if !a.IsCompleted {
			return ErrAttemptIncomplete
		}
		if a.InternalAssigned {
			return ErrInternalAssigned
		}

		a.InternalScore = clamp(marks, 0, exam.InternalMarks)
		result := ComputeComposite(exam, a.PartAScore, a.PartBScore, a.InternalScore)
		a.TotalScore = result.Total
		a.Percentage = result.Percentage
		a.IsPassed = result.IsPassed
		a.InternalAssigned = true

		now := s.clock.Now()
		due := now.Add(s.delay)
		gradedBy := instructorID
		a.GradedBy = &gradedBy
		a.GradedAt = &now
		a.PublishDueAt = &due

		if err := s.attempts.Update(ctx, a); err != nil {
			return fmt.Errorf("update attempt: %w", err)
		}
		attempt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, attempt.ID, *attempt.PublishDueAt); err != nil {
		// The database sweep still publishes it once due.
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Publication enqueue failed")
	}

	observability.AttemptTransitions().WithLabelValues("assign_internal").Inc()
	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("total_score", attempt.TotalScore).
		Float64("percentage", attempt.Percentage).
		Bool("passed", attempt.IsPassed).
		Time("publish_due_at", *attempt.PublishDueAt).
		Msg("Internal marks assigned")
	return attempt, nil
}

// ListPendingInternal lists completed attempts of the instructor's exams that
// still wait for internal marks.
func (s *AttemptService) ListPendingInternal(ctx context.Context, instructorID int) ([]model.ExamAttempt, error) {
	attempts, err := s.attempts.ListPendingInternal(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list pending attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.ExamAttempt{}
	}
	return attempts, nil
}

// GetProgress returns the score-free view of a student's attempt.
func (s *AttemptService) GetProgress(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.AttemptProgress, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	p := attempt.Progress()
	return &p, nil
}

// ListForStudent returns the score-free views of all of a student's attempts.
func (s *AttemptService) ListForStudent(ctx context.Context, studentID int) ([]model.AttemptProgress, error) {
	attempts, err := s.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]model.AttemptProgress, 0, len(attempts))
	for i := range attempts {
		out = append(out, attempts[i].Progress())
	}
	return out, nil
}

// GetResult returns the published result of a student's attempt.
func (s *AttemptService) GetResult(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.AttemptResult, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.ResultPublished || attempt.ResultPublishedAt == nil {
		return nil, ErrResultNotPublished
	}
	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	return &model.AttemptResult{
		AttemptID:     attempt.ID,
		ExamID:        attempt.ExamID,
		PartAScore:    attempt.PartAScore,
		PartBScore:    attempt.PartBScore,
		InternalScore: attempt.InternalScore,
		TotalScore:    attempt.TotalScore,
		TotalMarks:    exam.TotalMarks,
		Percentage:    attempt.Percentage,
		IsPassed:      attempt.IsPassed,
		PublishedAt:   *attempt.ResultPublishedAt,
	}, nil
}

func (s *AttemptService) ownedAttempt(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.ExamAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, ErrAttemptNotFound, "get attempt")
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

func (s *AttemptService) ownedExam(ctx context.Context, instructorID int, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, ErrNotOwned
	}
	return exam, nil
}
