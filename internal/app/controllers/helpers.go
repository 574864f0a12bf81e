package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// missingFile answers a multipart request without its "file" part
func missingFile(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "No file provided").
			WithKind(string(apperrors.KindInvalidArgument)).
			WithDetails(err.Error())))
}

// queryLimit reads the optional limit query parameter; the services clamp it
func queryLimit(ctx *gin.Context) int {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
