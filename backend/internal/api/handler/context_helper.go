package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wolf-scheduler/backend/internal/api/middleware"
	"wolf-scheduler/backend/internal/service"
	pkgerrors "wolf-scheduler/backend/pkg/errors"
	"wolf-scheduler/backend/pkg/response"
)

// ── 课表模块错误码 ──

const (
	codeInvalidParams     = 17001
	codeInvalidTitle      = 17002
	codeCourseNotFound    = 17101
	codeCourseNotEnrolled = 17102
	codeDuplicateEnrolled = 17103
	codeSourceUnavailable = 17201
	codeExportFailed      = 17202
	codeBodyTooLarge      = 10005
)

// bindFailed 写入参数绑定失败的响应
func bindFailed(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, codeInvalidParams, "参数校验失败", err.Error())
}

// handleServiceError 将业务错误映射为 HTTP 响应
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidTitle):
		response.BadRequest(c, codeInvalidTitle, pkgerrors.ErrInvalidTitle.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, codeCourseNotFound, service.ErrCourseNotFound.Error())
	case errors.Is(err, service.ErrCourseNotEnrolled):
		response.NotFound(c, codeCourseNotEnrolled, service.ErrCourseNotEnrolled.Error())
	case errors.Is(err, pkgerrors.ErrDuplicateEnrollment):
		response.Conflict(c, codeDuplicateEnrolled, err.Error())
	case errors.Is(err, pkgerrors.ErrSourceUnavailable):
		response.Error(c, http.StatusInternalServerError, codeSourceUnavailable, pkgerrors.ErrSourceUnavailable.Error())
	case errors.Is(err, pkgerrors.ErrExportFailed):
		response.Error(c, http.StatusInternalServerError, codeExportFailed, pkgerrors.ErrExportFailed.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
