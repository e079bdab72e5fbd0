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

// manualSweepLimit bounds one admin-triggered publication sweep.
const manualSweepLimit = 500

// AdminHandler handles admin-specific endpoints (non-exam).
type AdminHandler struct {
	scheduleService    *service.ScheduleService
	publicationService *service.PublicationService
	log                zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(scheduleService *service.ScheduleService, publicationService *service.PublicationService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		scheduleService:    scheduleService,
		publicationService: publicationService,
		log:                log.With().Str("component", "admin_handler").Logger(),
	}
}

// CompleteEnrollment godoc
// POST /api/v1/admin/enrollments/complete
// Marks a student's course as completed, auto-schedules the course exam and
// awards course achievements.
func (h *AdminHandler) CompleteEnrollment(c *gin.Context) {
	var req model.CompleteEnrollmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sched, err := h.scheduleService.CompleteCourse(c.Request.Context(), req.StudentID, req.CourseID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"schedule": sched})
}

// PublishAttempt godoc
// POST /api/v1/admin/publications/:attempt_id
// Publishes one attempt whose delay has elapsed.
func (h *AdminHandler) PublishAttempt(c *gin.Context) {
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	published, err := h.publicationService.Publish(c.Request.Context(), attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"published": published})
}

// RunPublicationSweep godoc
// POST /api/v1/admin/publications/sweep
// Publishes every due attempt now instead of waiting for the worker.
func (h *AdminHandler) RunPublicationSweep(c *gin.Context) {
	n, err := h.publicationService.PublishDue(c.Request.Context(), manualSweepLimit)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"published": n})
}
