package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/response"
	"github.com/stemsi/exstem-lms/internal/service"
)

// errorMapping pairs a service error with its HTTP status and error code.
type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// specificErrors are checked before the kinds so the client gets the most
// precise code. Order matters: the first match wins.
var specificErrors = []errorMapping{
	{service.ErrNotOwned, http.StatusForbidden, response.ErrNotOwner},
	{service.ErrNotAttemptOwner, http.StatusForbidden, response.ErrNotOwner},
	{service.ErrNotEnrolled, http.StatusUnprocessableEntity, response.ErrNotEnrolled},
	{service.ErrPastDate, http.StatusUnprocessableEntity, response.ErrPastDate},
	{service.ErrAttemptInProgress, http.StatusConflict, response.ErrAttemptInProgress},
	{service.ErrPartAIncomplete, http.StatusConflict, response.ErrPartAIncomplete},
	{service.ErrMarksUnbalanced, http.StatusUnprocessableEntity, response.ErrMarksUnbalanced},
	{service.ErrNoSchedule, http.StatusForbidden, response.ErrNoSchedule},
	{service.ErrOutsideWindow, http.StatusForbidden, response.ErrOutsideWindow},
	{service.ErrResultNotPublished, http.StatusForbidden, response.ErrResultNotPublished},
	{service.ErrExamNotAvailable, http.StatusForbidden, response.ErrExamNotAvailable},
	{service.ErrPaymentFailed, http.StatusPaymentRequired, response.ErrPaymentFailed},
}

// kindErrors map the remaining errors by kind; the domain message travels
// in the envelope.
var kindErrors = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNotAuthorized, http.StatusForbidden, response.ErrForbidden},
	{service.ErrInvalidState, http.StatusConflict, response.ErrInvalidState},
	{service.ErrNotAvailable, http.StatusForbidden, response.ErrExamNotAvailable},
	{service.ErrAlreadyExists, http.StatusConflict, response.ErrConflict},
	{service.ErrPaymentRequired, http.StatusPaymentRequired, response.ErrPaymentRequired},
}

// failService writes the error envelope for a service error. Unknown errors
// are logged and reported as internal errors.
func failService(c *gin.Context, log zerolog.Logger, err error) {
	for _, m := range specificErrors {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}
	for _, m := range kindErrors {
		if errors.Is(err, m.err) {
			response.FailWithDetail(c, m.status, m.code, err.Error())
			return
		}
	}

	log.Error().Err(err).
		Str("route", c.FullPath()).
		Str("method", c.Request.Method).
		Msg("Unhandled service error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
