package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/service"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// EventHandler 活动模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents 活动列表（日期倒序）
// GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.eventSvc.List(c.Request.Context())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, gin.H{"list": events})
}

// GetActiveEvent 当前进行中的活动
// GET /api/v1/events/active
func (h *EventHandler) GetActiveEvent(c *gin.Context) {
	event, err := h.eventSvc.GetActive(c.Request.Context())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateEvent 创建活动
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// SetEventActive 开启/结束活动
// PUT /api/v1/events/:id/active
func (h *EventHandler) SetEventActive(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handleEventError(c, service.ErrEventNotFound)
		return
	}

	var req dto.SetEventActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	event, err := h.eventSvc.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent 删除活动
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handleEventError(c, service.ErrEventNotFound)
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// Calendar 活动日历订阅
// GET /api/v1/events/calendar.ics
func (h *EventHandler) Calendar(c *gin.Context) {
	data, err := h.eventSvc.Calendar(c.Request.Context())
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Attachment(c, "text/calendar; charset=utf-8", "events.ics", data)
}

func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 15001, "活动不存在")
	case errors.Is(err, service.ErrEventActive):
		response.BadRequest(c, 15002, "活动进行中，请先结束后再删除")
	case errors.Is(err, service.ErrNoActiveEvent):
		response.Conflict(c, 14001, "当前没有进行中的活动")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
