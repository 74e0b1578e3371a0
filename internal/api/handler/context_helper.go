package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"social-catering/backend/pkg/response"
)

// MustGetActorID 从 Gin 上下文中安全提取 actor_id。
// 如果 JWT 中间件未正确注入 actor_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActorID(c *gin.Context) (string, bool) {
	v, exists := c.Get("actor_id")
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

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
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

// bindOptionalJSON 解析可选的请求体；空请求体视为全部字段缺省
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	return true
}
