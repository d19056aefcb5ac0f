package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context Key
const ContextKeyRawBody = "raw_body"

// RawBody 在任何 JSON 绑定之前截留请求体的原始字节
// 签名校验依赖的是线上的准确字节序列，解析再序列化会破坏它，
// 所以这个中间件必须挂在 webhook 路由的最前面
func RawBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "读取请求体失败"})
			c.Abort()
			return
		}
		c.Set(ContextKeyRawBody, body)
		// 放回去，后续还能正常绑定
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

// GetRawBody 取出截留的原始字节，不存在时返回 nil
func GetRawBody(c *gin.Context) []byte {
	if v, exists := c.Get(ContextKeyRawBody); exists {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}
