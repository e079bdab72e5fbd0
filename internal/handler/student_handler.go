package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stemsi/exstem-lms/internal/response"
	"github.com/stemsi/exstem-lms/internal/service"
	"github.com/stemsi/exstem-lms/internal/validator"
)

// StudentHandler handles student-facing endpoints: schedules, attempts,
// results, missed-exam requests, re-exams and rewards.
type StudentHandler struct {
	scheduleService    *service.ScheduleService
	attemptService     *service.AttemptService
	missedExamService  *service.MissedExamService
	reExamService      *service.ReExamService
	certificateService *service.CertificateService
	achievementService *service.AchievementService
	log                zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	scheduleService *service.ScheduleService,
	attemptService *service.AttemptService,
	missedExamService *service.MissedExamService,
	reExamService *service.ReExamService,
	certificateService *service.CertificateService,
	achievementService *service.AchievementService,
	log zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		scheduleService:    scheduleService,
		attemptService:     attemptService,
		missedExamService:  missedExamService,
		reExamService:      reExamService,
		certificateService: certificateService,
		achievementService: achievementService,
		log:                log.With().Str("component", "student_handler").Logger(),
	}
}

// ListSchedules godoc
// GET /api/v1/student/schedules
// Returns the student's exam schedules with their resolved windows.
func (h *StudentHandler) ListSchedules(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	schedules, err := h.scheduleService.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"schedules": schedules})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:exam_id/attempts
// Starts an attempt inside the student's window. Idempotent while an attempt is open.
func (h *StudentHandler) StartAttempt(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	attempt, created, err := h.attemptService.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"attempt": attempt.Progress()})
}

// GetPaper godoc
// GET /api/v1/student/attempts/:attempt_id/paper
// Returns the attempt's questions in their persisted order, without answers.
func (h *StudentHandler) GetPaper(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	paper, err := h.attemptService.GetPaper(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitPartA godoc
// POST /api/v1/student/attempts/:attempt_id/part-a
// Submits and auto-scores the objective part.
func (h *StudentHandler) SubmitPartA(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SubmitPartARequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.SubmitPartA(c.Request.Context(), claims.UserID, attemptID, req.Answers)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt.Progress()})
}

// SubmitPartB godoc
// POST /api/v1/student/attempts/:attempt_id/part-b
// Submits the free-text part and completes the attempt.
func (h *StudentHandler) SubmitPartB(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SubmitPartBRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.SubmitPartB(c.Request.Context(), claims.UserID, attemptID, req.Answers)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt.Progress()})
}

// ListAttempts godoc
// GET /api/v1/student/attempts
func (h *StudentHandler) ListAttempts(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetProgress godoc
// GET /api/v1/student/attempts/:attempt_id
func (h *StudentHandler) GetProgress(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	progress, err := h.attemptService.GetProgress(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": progress})
}

// GetResult godoc
// GET /api/v1/student/attempts/:attempt_id/result
// Returns scores once the result is published; 403 RESULT_NOT_PUBLISHED before.
func (h *StudentHandler) GetResult(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// SubmitMissedExam godoc
// POST /api/v1/student/exams/:exam_id/missed-requests
// Files a missed-exam request after the window closed. A second request for
// the same exam is a no-op.
func (h *StudentHandler) SubmitMissedExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.SubmitMissedExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	created, err := h.missedExamService.Submit(c.Request.Context(), claims.UserID, examID, req.Reason)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"created": created})
}

// ListMissedExams godoc
// GET /api/v1/student/missed-requests
func (h *StudentHandler) ListMissedExams(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	requests, err := h.missedExamService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// GetReExamStatus godoc
// GET /api/v1/student/attempts/:attempt_id/re-exam
// Reports whether the re-exam of a failed attempt is paid.
func (h *StudentHandler) GetReExamStatus(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	paid, err := h.reExamService.HasPaidReExam(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paid": paid})
}

// PayReExam godoc
// POST /api/v1/student/attempts/:attempt_id/re-exam/payment
// Charges the re-exam fee for a failed attempt.
func (h *StudentHandler) PayReExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	var req model.PayReExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payment, err := h.reExamService.PayForReExam(c.Request.Context(), claims.UserID, attemptID, req.Method)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": payment})
}

// CreateReExam godoc
// POST /api/v1/student/attempts/:attempt_id/re-exam
// Opens the paid re-exam attempt for a failed attempt.
func (h *StudentHandler) CreateReExam(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	attempt, err := h.reExamService.CreateReExamAttempt(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt.Progress()})
}

// ListCertificates godoc
// GET /api/v1/student/certificates
func (h *StudentHandler) ListCertificates(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	certs, err := h.certificateService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificates": certs})
}

// ListAchievements godoc
// GET /api/v1/student/achievements
func (h *StudentHandler) ListAchievements(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	achievements, err := h.achievementService.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"achievements": achievements})
}
