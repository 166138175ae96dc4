package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/service"
	"wolf-scheduler/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 课表导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportText 以课程记录格式导出课表到服务器导出目录
// POST /api/v1/schedule/export
func (h *ExportHandler) ExportText(c *gin.Context) {
	var req dto.ExportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.exportSvc.ExportText(c.Request.Context(), req.Filename)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// ExportExcel 下载 Excel 课表
// GET /api/v1/schedule/export/xlsx
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	h.download(c, contentTypeXLSX, h.exportSvc.ExportExcel)
}

// ExportICS 下载 iCalendar 课表
// GET /api/v1/schedule/export/ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	h.download(c, contentTypeICS, h.exportSvc.ExportICS)
}

func (h *ExportHandler) download(c *gin.Context, contentType string, export func(context.Context) (*bytes.Buffer, string, error)) {
	buf, filename, err := export(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
