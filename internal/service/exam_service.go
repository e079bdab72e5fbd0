package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/response"
)

// ExamService handles exam authoring and admin review.
type ExamService struct {
	exams     ExamStore
	courses   CourseStore
	questions QuestionStore
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, courses CourseStore, questions QuestionStore, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:     exams,
		courses:   courses,
		questions: questions,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Get retrieves an exam by its UUID.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	return exam, nil
}

// ListByInstructor retrieves an instructor's exams with pagination.
// Pass instructorID=0 to list all exams (admin).
func (s *ExamService) ListByInstructor(ctx context.Context, instructorID, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.exams.ListByInstructor(ctx, instructorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	return exams, response.NewPagination(page, perPage, total), nil
}

// Create inserts a new exam pending admin approval. Only the course's
// instructor may create its exams.
func (s *ExamService) Create(ctx context.Context, instructorID int, req *model.CreateExamRequest) (*model.Exam, error) {
	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound, "get course")
	}
	if course.InstructorID != instructorID {
		return nil, ErrNotOwned
	}

	exam := &model.Exam{
		CourseID:          req.CourseID,
		InstructorID:      instructorID,
		Title:             req.Title,
		TotalMarks:        req.TotalMarks,
		PartAMarks:        req.PartAMarks,
		PartBMarks:        req.PartBMarks,
		InternalMarks:     req.InternalMarks,
		PassingPercentage: req.PassingPercentage,
		DurationMinutes:   req.DurationMinutes,
		ApprovalStatus:    model.ApprovalStatusPending,
		IsActive:          true,
		ScheduledStart:    req.ScheduledStart,
		ScheduledEnd:      req.ScheduledEnd,
	}
	if !exam.MarksBalanced() {
		return nil, ErrMarksUnbalanced
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Int("instructor_id", instructorID).Msg("Exam created")
	return exam, nil
}

// AddQuestion appends a question to a pending exam the instructor owns. Part A
// questions default to DefaultPartAPoints and need at least two options, one
// of them correct. A part's question points may not exceed the part's marks.
func (s *ExamService) AddQuestion(ctx context.Context, instructorID int, examID uuid.UUID, req *model.AddQuestionRequest) (*model.ExamQuestion, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, ErrNotOwned
	}
	if exam.ApprovalStatus != model.ApprovalStatusPending {
		return nil, ErrExamReviewed
	}

	q := &model.ExamQuestion{
		ExamID:       examID,
		Part:         req.Part,
		QuestionText: req.QuestionText,
		Points:       req.Points,
		OrderNum:     req.OrderNum,
	}

	partMarks := exam.PartBMarks
	if req.Part == model.PartA {
		partMarks = exam.PartAMarks
		if q.Points == 0 {
			q.Points = DefaultPartAPoints
		}
		correct := 0
		for _, o := range req.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if len(req.Options) < 2 || correct == 0 {
			return nil, ErrInvalidQuestion
		}
		for i, o := range req.Options {
			q.Options = append(q.Options, model.ExamQuestionOption{
				OptionText: o.OptionText,
				IsCorrect:  o.IsCorrect,
				OrderNum:   i + 1,
			})
		}
	} else if len(req.Options) > 0 {
		return nil, fmt.Errorf("%w: part B questions take no options", ErrInvalidQuestion)
	}

	existing, err := s.questions.ListByExamPart(ctx, examID, req.Part)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	sum := q.Points
	for _, e := range existing {
		sum += e.Points
	}
	if sum > partMarks {
		return nil, ErrPartMarksExceeded
	}
	if q.OrderNum == 0 {
		q.OrderNum = len(existing) + 1
	}

	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// ListQuestions returns the full bank, answers included, to the owning instructor.
func (s *ExamService) ListQuestions(ctx context.Context, instructorID int, examID uuid.UUID) ([]model.ExamQuestion, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.InstructorID != instructorID {
		return nil, ErrNotOwned
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.ExamQuestion{}
	}
	return questions, nil
}

// Review records the admin's decision on a pending exam.
func (s *ExamService) Review(ctx context.Context, examID uuid.UUID, approve bool) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, ErrExamNotFound, "get exam")
	}
	if exam.ApprovalStatus != model.ApprovalStatusPending {
		return nil, ErrExamReviewed
	}

	status := model.ApprovalStatusRejected
	if approve {
		status = model.ApprovalStatusApproved
	}
	if err := s.exams.UpdateApproval(ctx, examID, status); err != nil {
		return nil, fmt.Errorf("update approval: %w", err)
	}
	exam.ApprovalStatus = status

	s.log.Info().Str("exam_id", examID.String()).Str("status", string(status)).Msg("Exam reviewed")
	return exam, nil
}
