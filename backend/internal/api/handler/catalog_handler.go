package handler

import (
	"github.com/gin-gonic/gin"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/service"
	"wolf-scheduler/backend/pkg/response"
)

// CatalogHandler 课程目录 HTTP 处理器
type CatalogHandler struct {
	scheduleSvc service.ScheduleService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(scheduleSvc service.ScheduleService) *CatalogHandler {
	return &CatalogHandler{scheduleSvc: scheduleSvc}
}

// ListCatalog 获取课程目录
// GET /api/v1/catalog?department=CSC&days=MW
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	var query dto.CatalogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindFailed(c, err)
		return
	}

	response.OK(c, h.scheduleSvc.ListCatalog(c.Request.Context(), &query))
}

// ReloadCatalog 从配置的目录文件重新加载
// POST /api/v1/catalog/reload
func (h *CatalogHandler) ReloadCatalog(c *gin.Context) {
	result, err := h.scheduleSvc.ReloadCatalog(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
