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

// ScheduleHandler handles instructor scheduling and missed-exam resolution.
type ScheduleHandler struct {
	scheduleService   *service.ScheduleService
	missedExamService *service.MissedExamService
	log               zerolog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService, missedExamService *service.MissedExamService, log zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService:   scheduleService,
		missedExamService: missedExamService,
		log:               log.With().Str("component", "schedule_handler").Logger(),
	}
}

// AssignSchedule godoc
// POST /api/v1/instructor/exams/:exam_id/schedules
// Assigns one enrolled student a dated session. Reassigning overwrites.
func (h *ScheduleHandler) AssignSchedule(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.AssignScheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	date, err := h.scheduleService.ParseDate(req.Date)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"date": err.Error()})
		return
	}

	sched, err := h.scheduleService.Assign(c.Request.Context(), claims.UserID, req.StudentID, examID, date, req.Session)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"schedule": sched})
}

// BulkAssign godoc
// POST /api/v1/instructor/exams/:exam_id/schedules/bulk
// Assigns every enrolled, unscheduled student. Per-student failures are reported.
func (h *ScheduleHandler) BulkAssign(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.BulkAssignRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	date, err := h.scheduleService.ParseDate(req.Date)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"date": err.Error()})
		return
	}

	result, err := h.scheduleService.BulkAssign(c.Request.Context(), claims.UserID, examID, date, req.Session)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// UnassignSchedule godoc
// DELETE /api/v1/instructor/schedules/:schedule_id
func (h *ScheduleHandler) UnassignSchedule(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	scheduleID, ok := uuidParam(c, "schedule_id")
	if !ok {
		return
	}

	if err := h.scheduleService.Unassign(c.Request.Context(), claims.UserID, scheduleID); err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListSchedules godoc
// GET /api/v1/instructor/exams/:exam_id/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	examID, ok := uuidParam(c, "exam_id")
	if !ok {
		return
	}

	schedules, err := h.scheduleService.ListForExam(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"schedules": schedules})
}

// ListMissedRequests godoc
// GET /api/v1/instructor/missed-requests
// Lists pending missed-exam requests on the instructor's exams.
func (h *ScheduleHandler) ListMissedRequests(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	requests, err := h.missedExamService.ListPending(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// ApproveMissedRequest godoc
// POST /api/v1/instructor/missed-requests/:request_id/approve
// Approves a request and moves the student's own schedule to the new window.
func (h *ScheduleHandler) ApproveMissedRequest(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	requestID, ok := uuidParam(c, "request_id")
	if !ok {
		return
	}

	var req model.ApproveMissedExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resolved, err := h.missedExamService.Approve(c.Request.Context(), claims.UserID, requestID, req.NewStart, req.NewEnd)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": resolved})
}

// RejectMissedRequest godoc
// POST /api/v1/instructor/missed-requests/:request_id/reject
func (h *ScheduleHandler) RejectMissedRequest(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	requestID, ok := uuidParam(c, "request_id")
	if !ok {
		return
	}

	var req model.RejectMissedExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resolved, err := h.missedExamService.Reject(c.Request.Context(), claims.UserID, requestID, req.Response)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": resolved})
}
