package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/service"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/qrcode"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// QRCodeHandler 二维码图片 HTTP 处理器
type QRCodeHandler struct {
	qrcodeSvc service.QRCodeService
}

// NewQRCodeHandler 创建 QRCodeHandler
func NewQRCodeHandler(qrcodeSvc service.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{qrcodeSvc: qrcodeSvc}
}

// Generate 二维码生成代理，错误统一返回 {"error": "..."}
// POST /api/v1/qrcode/generate
func (h *QRCodeHandler) Generate(c *gin.Context) {
	var req qrcode.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ProxyError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	png, err := h.qrcodeSvc.Proxy(c.Request.Context(), &req)
	if err != nil {
		response.ProxyError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// PersonQRCode 人员二维码 PNG
// GET /api/v1/people/:id/qrcode
func (h *QRCodeHandler) PersonQRCode(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handleQRCodeError(c, service.ErrPersonNotFound)
		return
	}

	png, err := h.qrcodeSvc.PersonQRCode(c.Request.Context(), id)
	if err != nil {
		h.handleQRCodeError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// PersonBadge 人员胸牌 PDF
// GET /api/v1/people/:id/badge
func (h *QRCodeHandler) PersonBadge(c *gin.Context) {
	id := c.Param("id")
	if !isUUID(id) {
		h.handleQRCodeError(c, service.ErrPersonNotFound)
		return
	}

	pdf, filename, err := h.qrcodeSvc.PersonBadge(c.Request.Context(), id)
	if err != nil {
		h.handleQRCodeError(c, err)
		return
	}

	response.Attachment(c, "application/pdf", filename, pdf)
}

func (h *QRCodeHandler) handleQRCodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 13001, "人员不存在")
	case errors.Is(err, service.ErrQRCodeRender):
		response.Error(c, http.StatusInternalServerError, 17001, "二维码生成失败")
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
