package api

import (
	stderrors "errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/repo-tracker/internal/errors"
)

// httpStatus maps an error type onto the status returned to API clients
func httpStatus(errType errors.ErrorType) int {
	switch errType {
	case errors.ErrInvalidInput:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrRateLimit:
		return http.StatusTooManyRequests
	case errors.ErrTransport, errors.ErrUnexpectedStatus, errors.ErrMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondWithError(c *gin.Context, err error) {
	errType := errors.TypeOf(err)
	status := httpStatus(errType)

	message := "internal error"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}

	var rateLimitErr *errors.RateLimitError
	if stderrors.As(err, &rateLimitErr) && !rateLimitErr.ResetTime.IsZero() {
		wait := math.Ceil(time.Until(rateLimitErr.ResetTime).Seconds())
		if wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(wait)))
		}
	}

	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"path":       c.FullPath(),
		"error_type": errType,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.JSON(status, ErrorResponse{Error: ErrorBody{Type: string(errType), Message: message}})
}
