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

// GradingHandler handles Part B grading and internal marks.
type GradingHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(attemptService *service.AttemptService, log zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "grading_handler").Logger(),
	}
}

// ListPending godoc
// GET /api/v1/instructor/grading/pending
// Lists completed attempts still waiting for internal marks.
func (h *GradingHandler) ListPending(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListPendingInternal(c.Request.Context(), claims.UserID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetGradingView godoc
// GET /api/v1/instructor/grading/attempts/:attempt_id
func (h *GradingHandler) GetGradingView(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	view, err := h.attemptService.GetGradingView(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GradePartB godoc
// POST /api/v1/instructor/grading/attempts/:attempt_id/part-b
func (h *GradingHandler) GradePartB(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	var req model.GradePartBRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.GradePartB(c.Request.Context(), claims.UserID, attemptID, req.Grades)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// AssignInternal godoc
// POST /api/v1/instructor/grading/attempts/:attempt_id/internal
// Records internal marks, computes the composite and schedules publication.
func (h *GradingHandler) AssignInternal(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	attemptID, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	var req model.AssignInternalRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.AssignInternal(c.Request.Context(), claims.UserID, attemptID, *req.InternalMarks)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}
