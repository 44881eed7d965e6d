package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/aptscope/aptscope-backend/internal/pkg/errors"
)

// RespondServiceError maps service-layer sentinels onto HTTP statuses.
// A malformed filter is the caller's fault; everything else is ours.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidFilter):
		RespondError(c, http.StatusBadRequest, "invalid_filter", err)
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperrors.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
