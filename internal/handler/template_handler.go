package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"iam-core-go/internal/service"
	"iam-core-go/pkg/log"
)

// TemplateHandler 负责权限模板机制的管理入口。
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler 创建一个新的 TemplateHandler 实例。
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// EnsureBaseline 保证租户的访问角色存在并持有权限基线。
func (h *TemplateHandler) EnsureBaseline(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	role, err := h.templateService.EnsureRoleHasPermissions(c.Request.Context(), id, operatorName(c))
	if err != nil {
		log.Errorf("Ensure baseline failed, tenantId: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "预置权限基线失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": role})
}

// SyncPermissions 把模板的权限缺口补齐到租户角色上。
func (h *TemplateHandler) SyncPermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	added, err := h.templateService.SyncPermissionsFromTemplate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "租户的访问角色不存在"})
			return
		}
		log.Errorf("Sync permissions failed, tenantId: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "同步模板权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{"added": added}})
}
