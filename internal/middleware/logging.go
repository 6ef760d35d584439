package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"iam-core-go/pkg/log"
)

// RequestLogger 记录每个请求的访问日志。
// 鉴权通过的请求会带上租户与用户标识，便于按租户检索。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIp", c.ClientIP(),
		}
		if access, ok := GetAccessContext(c); ok {
			fields = append(fields, "tenantId", access.TenantID, "user", access.UserName)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		log.Infow("http request", fields...)
	}
}
