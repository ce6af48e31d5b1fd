package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader header mang ID request
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// maxRequestIDLen ID do client gửi dài hơn thì bị thay bằng ID mới
const maxRequestIDLen = 128

// GenerateUUID tạo UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}

// RequestID middleware gán ID cho mỗi request. ID từ client được giữ lại nếu hợp lệ.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = GenerateUUID()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID lấy ID request đã gán bởi RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
