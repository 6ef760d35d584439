// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iam-core-go/internal/middleware"
	"iam-core-go/internal/service"
)

// AuthzHandler 负责显式鉴权检查的 API 请求。
// 业务网关可以用它对任意 (method, path) 做预检。
type AuthzHandler struct {
	authzService service.AuthzService
}

// NewAuthzHandler 创建一个新的 AuthzHandler 实例。
func NewAuthzHandler(authzService service.AuthzService) *AuthzHandler {
	return &AuthzHandler{authzService: authzService}
}

// CheckRequest 定义了鉴权检查 API 的请求体结构。
type CheckRequest struct {
	Method string `json:"method" binding:"required"`
	Path   string `json:"path" binding:"required"`
}

// Check 对请求体指定的 (method, path) 做一次完整鉴权。
// 凭证与渠道标识仍从请求头读取。
func (h *AuthzHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：method 和 path 不能为空"})
		return
	}

	decision := h.authzService.Authorize(c.Request.Context(), service.AuthorizeRequest{
		Credential: c.GetHeader("Authorization"),
		ClientID:   c.GetHeader(middleware.ClientIDHeader),
		Method:     req.Method,
		Path:       req.Path,
	})

	if !decision.Allowed {
		c.JSON(http.StatusOK, gin.H{
			"code": decision.Status,
			"data": gin.H{"allowed": false, "reason": decision.Reason},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"data": gin.H{
			"allowed":    true,
			"tenantId":   decision.Context.TenantID,
			"userId":     decision.Context.UserID,
			"userName":   decision.Context.UserName,
			"roleCode":   decision.Context.RoleCode,
			"superAdmin": decision.Context.SuperAdmin,
		},
	})
}

// Me 返回当前请求的访问上下文。
func (h *AuthzHandler) Me(c *gin.Context) {
	access, ok := middleware.GetAccessContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未通过鉴权"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": access})
}
