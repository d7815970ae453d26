package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/jwt"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxClaims = "token_claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetClaims 提取当前 Access Token 的声明，注销时用于拉黑 jti
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// isUUID 路径/查询中的 ID 必须为 UUID；格式不对的 ID 视为不存在
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// handleCommonError 处理校验错误与存储错误；已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	if ve, ok := pkgerrors.IsValidation(err); ok {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, ve.Message, ve.Field)
		return true
	}
	if pkgerrors.IsStore(err) {
		response.StoreFailed(c)
		return true
	}
	return false
}
