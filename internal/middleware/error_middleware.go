package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/logger"
)

// StatusFor maps an error onto its HTTP status
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindPermissionDenied:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidArgument:
		if apperrors.Is(err, apperrors.ErrInvalidState, apperrors.ErrConflict,
			apperrors.ErrResourceAlreadyExists, apperrors.ErrEmailAlreadyExists) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) dto.ErrorCode {
	switch {
	case errors.Is(err, apperrors.ErrTokenExpired):
		return dto.ErrorCodeExpiredToken
	case apperrors.Is(err, apperrors.ErrTokenInvalid, apperrors.ErrInvalidFormat):
		return dto.ErrorCodeInvalidToken
	case errors.Is(err, apperrors.ErrInvalidState):
		return dto.ErrorCodeInvalidState
	case apperrors.Is(err, apperrors.ErrResourceAlreadyExists, apperrors.ErrEmailAlreadyExists, apperrors.ErrConflict):
		return dto.ErrorCodeResourceAlreadyExists
	case errors.Is(err, apperrors.ErrValidationFailed):
		return dto.ErrorCodeValidationFailed
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindUnauthenticated:
		return dto.ErrorCodeUnauthorized
	case apperrors.KindPermissionDenied:
		return dto.ErrorCodeForbidden
	case apperrors.KindNotFound:
		return dto.ErrorCodeResourceNotFound
	case apperrors.KindInvalidArgument:
		return dto.ErrorCodeInvalidRequest
	default:
		return dto.ErrorCodeInternalServer
	}
}

// HandleAPIError writes the error response for err. Internal errors are logged
// and reach the client only as a generic message.
func HandleAPIError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := StatusFor(err)

	if kind == apperrors.KindInternal {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	errorDetail := dto.NewErrorDetail(codeFor(err), apperrors.PublicMessage(err)).WithKind(string(kind))
	if status >= http.StatusInternalServerError {
		errorDetail = errorDetail.WithSeverity(dto.ErrorSeverityCritical)
	}

	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Details != nil && kind != apperrors.KindInternal {
		errorDetail = errorDetail.WithDetails(ce.Details)
	}

	c.JSON(status, dto.NewErrorResponse(errorDetail))
}
