package handler

import (
	"github.com/gin-gonic/gin"

	"wolf-scheduler/backend/internal/dto"
	"wolf-scheduler/backend/internal/service"
	"wolf-scheduler/backend/pkg/response"
)

// ScheduleHandler 课表 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GetSchedule 课表简要视图
// GET /api/v1/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	response.OK(c, h.scheduleSvc.GetSchedule(c.Request.Context()))
}

// GetFullSchedule 课表完整视图
// GET /api/v1/schedule/full
func (h *ScheduleHandler) GetFullSchedule(c *gin.Context) {
	response.OK(c, h.scheduleSvc.GetFullSchedule(c.Request.Context()))
}

// GetCalendar 课表周视图
// GET /api/v1/schedule/calendar
func (h *ScheduleHandler) GetCalendar(c *gin.Context) {
	response.OK(c, h.scheduleSvc.GetCalendar(c.Request.Context()))
}

// GetConflicts 课表时间冲突
// GET /api/v1/schedule/conflicts
func (h *ScheduleHandler) GetConflicts(c *gin.Context) {
	conflicts := h.scheduleSvc.GetConflicts(c.Request.Context())
	response.OK(c, gin.H{"total": len(conflicts), "list": conflicts})
}

// AddCourse 选课
// POST /api/v1/schedule/courses
func (h *ScheduleHandler) AddCourse(c *gin.Context) {
	var req dto.ScheduleCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	row, err := h.scheduleSvc.AddCourse(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, row)
}

// RemoveCourse 退课
// DELETE /api/v1/schedule/courses?name=CSC%20216&section=001
func (h *ScheduleHandler) RemoveCourse(c *gin.Context) {
	var req dto.ScheduleCourseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.scheduleSvc.RemoveCourse(c.Request.Context(), &req); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ResetSchedule 清空课表
// POST /api/v1/schedule/reset
func (h *ScheduleHandler) ResetSchedule(c *gin.Context) {
	h.scheduleSvc.ResetSchedule(c.Request.Context())
	response.OK(c, nil)
}

// GetTitle 获取课表标题
// GET /api/v1/schedule/title
func (h *ScheduleHandler) GetTitle(c *gin.Context) {
	response.OK(c, h.scheduleSvc.GetTitle(c.Request.Context()))
}

// UpdateTitle 修改课表标题；{"title": null} 或缺失时拒绝
// PUT /api/v1/schedule/title
func (h *ScheduleHandler) UpdateTitle(c *gin.Context) {
	var req dto.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.scheduleSvc.SetTitle(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
