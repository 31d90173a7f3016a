package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/logger"
)

// StatusClientClosedRequest is logged when the caller went away mid-request.
const StatusClientClosedRequest = 499

// --- Central Error Handling Middleware/Function ---

// HandleAPIError maps an application error to a status code and the standard
// error envelope. Storage failures get a generic message; their cause has
// already been logged by the repository.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorDetailFor(err)

	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", status).
		Str("code", string(detail.Code)).
		Msg("Request failed")

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func errorDetailFor(err error) (int, *dto.ErrorDetail) {
	switch {
	case errors.Is(err, apperrors.ErrNoData):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeNoData, "No data available").
			WithSeverity(dto.ErrorSeverityInfo)

	// Validation
	case errors.Is(err, apperrors.ErrInvalidID):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidID, "Invalid identifier").
			WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrInvalidAverage):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidAverage, "Overall average does not match semester grades").
			WithField("overallAverage").
			WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(err.Error())
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, publicMessage(err, "Bad request")).
			WithDetails(err.Error())

	// Resources
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, publicMessage(err, "Resource not found"))
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, publicMessage(err, "Resource already exists"))

	// Authentication
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrSessionExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Session expired")
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")

	// Storage
	case errors.Is(err, apperrors.ErrStorageTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.NewErrorDetail(dto.ErrorCodeDatabaseTimeout, "Storage operation timed out").
			WithSeverity(dto.ErrorSeverityCritical)
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Storage unavailable").
			WithSeverity(dto.ErrorSeverityCritical)
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Request cancelled").
			WithSeverity(dto.ErrorSeverityWarning)

	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

// publicMessage returns the message of an apperrors.CustomError, which is
// written for clients, or fallback for anything else.
func publicMessage(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return fallback
}
