package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"course-enrollment/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 学生的 user_id 即 student_id；协调员的 user_id 记入审计字段。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetPathID 提取路径参数 :id，只接受 8-4-4-4-12 标准格式的 UUID。
// 格式不合法时按 notFoundCode 写入 404，调用方应在 ok=false 时直接 return。
func MustGetPathID(c *gin.Context, notFoundCode int, notFoundMsg string) (string, bool) {
	id := c.Param("id")
	if len(id) != 36 || uuid.Validate(id) != nil {
		response.NotFound(c, notFoundCode, notFoundMsg)
		return "", false
	}
	return id, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
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
