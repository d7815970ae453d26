package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/service"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// DashboardHandler 仪表盘 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Stats 统计数据
// GET /api/v1/dashboard/stats?event_id=xxx
func (h *DashboardHandler) Stats(c *gin.Context) {
	eventID, ok := bindEventQuery(c)
	if !ok {
		return
	}

	stats, err := h.dashboardSvc.Stats(c.Request.Context(), eventID)
	if err != nil {
		handleEventLookupError(c, err)
		return
	}

	response.OK(c, stats)
}

// CheckIns 签到列表（最新在前）
// GET /api/v1/dashboard/check-ins?event_id=xxx
func (h *DashboardHandler) CheckIns(c *gin.Context) {
	eventID, ok := bindEventQuery(c)
	if !ok {
		return
	}

	items, err := h.dashboardSvc.CheckIns(c.Request.Context(), eventID)
	if err != nil {
		handleEventLookupError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// bindEventQuery 读取可选的 event_id；格式非法按活动不存在处理
func bindEventQuery(c *gin.Context) (string, bool) {
	var q dto.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return "", false
	}
	if q.EventID != "" && !isUUID(q.EventID) {
		handleEventLookupError(c, service.ErrEventNotFound)
		return "", false
	}
	return q.EventID, true
}

func handleEventLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 15001, "活动不存在")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
