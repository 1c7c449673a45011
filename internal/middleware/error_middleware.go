package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/edupulse/internal/app/models/dto"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
)

// HandleAPIError maps application errors onto the standard error envelope.
// Controllers call it as the single exit point for failed requests.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound):
		respond(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Course not found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		respond(c, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrConflict):
		respond(c, http.StatusConflict, dto.ErrorCodeResourceConflict, err.Error())
	case errors.Is(err, apperrors.ErrUniquenessViolation):
		respond(c, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, err.Error())
	case errors.Is(err, apperrors.ErrOccurrencesInUse):
		respond(c, http.StatusConflict, dto.ErrorCodeOccurrencesInUse, err.Error())
	case errors.Is(err, apperrors.ErrTransitionNotAllowed):
		respond(c, http.StatusConflict, dto.ErrorCodeTransitionNotAllowed, err.Error())
	case errors.Is(err, apperrors.ErrInvalidStatus):
		respond(c, http.StatusBadRequest, dto.ErrorCodeInvalidStatus, err.Error())
	case errors.Is(err, apperrors.ErrConfiguration):
		detail := dto.NewErrorDetail(dto.ErrorCodeInvalidRecurrence, err.Error())
		var cfgErr *apperrors.ConfigurationError
		if errors.As(err, &cfgErr) {
			detail = detail.WithField(cfgErr.Field)
		}
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
	case errors.Is(err, apperrors.ErrValidationFailed):
		respond(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, apperrors.ErrBadRequest):
		respond(c, http.StatusBadRequest, dto.ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		respond(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token")
	default:
		respond(c, http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func respond(c *gin.Context, status int, code dto.ErrorCode, message string) {
	c.JSON(status, dto.NewErrorResponse(dto.NewErrorDetail(code, message)))
}

// HandleBindingError reports a request body or query binding failure
func HandleBindingError(c *gin.Context, err error) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
