// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"iam-core-go/internal/config"
	"iam-core-go/internal/service"
)

// AccessContextKey 是鉴权通过后访问上下文在 gin.Context 中的键。
const AccessContextKey = "accessContext"

// ClientIDHeader 是调用方渠道标识的请求头名称。
const ClientIDHeader = "X-Client-Id"

// AuthMiddleware 对每个请求执行鉴权。公开路径直接放行；
// 其余请求交给鉴权服务决策，拒绝时按决策的状态码响应。
func AuthMiddleware(authzSvc service.AuthzService, cfg config.AuthConfig) gin.HandlerFunc {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "Authorization"
	}
	publicPaths := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		publicPaths[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := publicPaths[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.PublicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		decision := authzSvc.Authorize(c.Request.Context(), service.AuthorizeRequest{
			Credential: c.GetHeader(headerName),
			ClientID:   c.GetHeader(ClientIDHeader),
			Method:     c.Request.Method,
			Path:       path,
		})
		if !decision.Allowed {
			c.AbortWithStatusJSON(decision.Status, gin.H{"error": decision.Reason})
			return
		}

		c.Set(AccessContextKey, decision.Context)
		c.Next()
	}
}

// GetAccessContext 取出鉴权中间件写入的访问上下文。
// 只应在 AuthMiddleware 之后的处理函数里调用。
func GetAccessContext(c *gin.Context) (*service.AccessContext, bool) {
	value, exists := c.Get(AccessContextKey)
	if !exists {
		return nil, false
	}
	access, ok := value.(*service.AccessContext)
	return access, ok
}

// RequireSuperAdmin 只允许超管继续。必须在 AuthMiddleware 之后使用。
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := GetAccessContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "无法获取访问上下文"})
			return
		}
		if !access.SuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "权限不足，需要超级管理员"})
			return
		}
		c.Next()
	}
}
