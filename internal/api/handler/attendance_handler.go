package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/service"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// AttendanceHandler 签到模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Scan 摄像头扫码签到
// POST /api/v1/attendance/scan
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req dto.ScanCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.CheckInByScan(c.Request.Context(), req.ScanSessionID, req.Code)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// QRCode 手动输入二维码标识签到
// POST /api/v1/attendance/qr
func (h *AttendanceHandler) QRCode(c *gin.Context) {
	var req dto.QRCodeCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.CheckInByQRCode(c.Request.Context(), req.Code)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// Manual 从人员列表选择签到
// POST /api/v1/attendance/manual
func (h *AttendanceHandler) Manual(c *gin.Context) {
	var req dto.ManualCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if !isUUID(req.PersonID) {
		h.handleAttendanceError(c, service.ErrPersonNotFound)
		return
	}

	result, err := h.attendanceSvc.CheckInManual(c.Request.Context(), req.PersonID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveEvent):
		response.Conflict(c, 14001, "当前没有进行中的活动")
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 13001, "未找到该人员")
	case errors.Is(err, service.ErrDuplicateAttendance):
		// 提示信息包含姓名
		response.Conflict(c, 14002, err.Error())
	case errors.Is(err, service.ErrScanAlreadyHandled):
		response.Conflict(c, 14003, "该扫码会话已处理")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
