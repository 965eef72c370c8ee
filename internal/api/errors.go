package api

import (
	stderrors "errors"
	"net/http"

	"cafeteria-meals/internal/db"
	"cafeteria-meals/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to HTTP responses. Anything unknown is a
// 500 and is logged with the request id.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

func statusFor(err error) (int, string) {
	var validationErr errors.ValidationError
	switch {
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Store unavailable"
	case stderrors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case stderrors.Is(err, errors.ErrInvalidSlot),
		stderrors.Is(err, errors.ErrInvalidStatus),
		stderrors.Is(err, errors.ErrInvalidMealPlan),
		stderrors.Is(err, errors.ErrInvalidDate),
		stderrors.Is(err, errors.ErrNoSearchCriteria),
		stderrors.Is(err, errors.ErrBackfillDisabled),
		stderrors.Is(err, errors.ErrFutureDate):
		return http.StatusBadRequest, err.Error()
	case stderrors.Is(err, errors.ErrNoRecords),
		stderrors.Is(err, errors.ErrStudentNotFound),
		stderrors.Is(err, db.ErrRosterFileNotFound):
		return http.StatusNotFound, err.Error()
	case stderrors.Is(err, errors.ErrDuplicateEvent):
		return http.StatusConflict, err.Error()
	case stderrors.Is(err, errors.ErrNotEligible):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
