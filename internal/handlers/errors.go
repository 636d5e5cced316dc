package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"daily-squad/internal/services"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[string]int{
	"event_not_found":          http.StatusNotFound,
	"squad_not_found":          http.StatusNotFound,
	"outcome_not_found":        http.StatusNotFound,
	"not_judge":                http.StatusForbidden,
	"not_squad_member":         http.StatusForbidden,
	"judge_cannot_challenge":   http.StatusForbidden,
	"challenge_window_expired": http.StatusGone,
	"invalid_event":            http.StatusBadRequest,
	"invalid_squad":            http.StatusBadRequest,
}

// StatusForCode maps a business error code to its HTTP status. Codes not
// listed are conflicts with the current state.
func StatusForCode(code string) int {
	if code == services.CodeInternal {
		return http.StatusInternalServerError
	}
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusConflict
}

// respondError writes err as {"error", "code"}. Infrastructure failures are
// logged here and hidden behind a generic message.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	code := services.ErrorCode(err)
	if code == services.CodeInternal {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": code})
		return
	}
	c.JSON(StatusForCode(code), gin.H{"error": err.Error(), "code": code})
}

// bindOptionalJSON binds a body the client may leave out. Chunked bodies
// carry no length, so an empty body is detected by decoding it.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
}
