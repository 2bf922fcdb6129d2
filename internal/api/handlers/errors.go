package handlers

import (
	"errors"
	"net/http"

	"lotsizing/internal/api/models"
	"lotsizing/internal/data"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondParseError maps parser failures to 422 with the reason and line.
func respondParseError(c *gin.Context, err error) {
	var merr *data.MalformedInstanceError
	if errors.As(err, &merr) {
		details := map[string]interface{}{"reason": string(merr.Reason)}
		if merr.Line > 0 {
			details["line"] = merr.Line
		}
		respondError(c, http.StatusUnprocessableEntity, "MALFORMED_INSTANCE", merr.Error(), details)
		return
	}
	respondError(c, http.StatusBadRequest, "INVALID_INSTANCE", err.Error(), nil)
}
