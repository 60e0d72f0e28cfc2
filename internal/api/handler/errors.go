package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/response"
)

// handleError 按错误分类映射 HTTP 状态码，业务码取自 AppError
func handleError(c *gin.Context, err error) {
	appErr, ok := pkgerrors.As(err)
	if !ok {
		// 依赖故障与未知错误统一 500，原因交给请求日志
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	switch {
	case errors.Is(appErr, pkgerrors.ErrValidation):
		response.BadRequest(c, appErr.Code, appErr.Message)
	case errors.Is(appErr, pkgerrors.ErrNotFound):
		response.NotFound(c, appErr.Code, appErr.Message)
	case errors.Is(appErr, pkgerrors.ErrDuplicate):
		response.Conflict(c, appErr.Code, appErr.Message)
	case errors.Is(appErr, pkgerrors.ErrUnauthorized):
		response.Unauthorized(c, appErr.Code, appErr.Message)
	case errors.Is(appErr, pkgerrors.ErrForbidden):
		response.Forbidden(c, appErr.Code, appErr.Message)
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, appErr.Code, appErr.Message)
	}
}

// badRequest 参数绑定失败
func badRequest(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
