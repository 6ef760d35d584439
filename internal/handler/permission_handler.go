package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"iam-core-go/internal/service"
	"iam-core-go/pkg/log"
)

// PermissionHandler 负责权限定义管理相关的 API 请求。
type PermissionHandler struct {
	permissionService service.PermissionService
}

// NewPermissionHandler 创建一个新的 PermissionHandler 实例。
func NewPermissionHandler(permissionService service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// CreatePermissionRequest 定义了创建权限 API 的请求体结构。
type CreatePermissionRequest struct {
	PermissionName string  `json:"permissionName" binding:"required"`
	PermissionCode string  `json:"permissionCode" binding:"required"`
	PermissionType string  `json:"permissionType" binding:"required"`
	ParentID       *uint64 `json:"parentId"`
	Path           string  `json:"path"`
	Method         string  `json:"method"`
	Component      string  `json:"component"`
	Icon           string  `json:"icon"`
	SortOrder      int     `json:"sortOrder"`
	Remark         string  `json:"remark"`
}

// Create 处理创建权限的请求。
func (h *PermissionHandler) Create(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：permissionName、permissionCode、permissionType 不能为空"})
		return
	}

	perm, err := h.permissionService.CreatePermission(c.Request.Context(), service.CreatePermissionInput{
		PermissionName: req.PermissionName,
		PermissionCode: req.PermissionCode,
		PermissionType: req.PermissionType,
		ParentID:       req.ParentID,
		Path:           req.Path,
		Method:         req.Method,
		Component:      req.Component,
		Icon:           req.Icon,
		SortOrder:      req.SortOrder,
		Remark:         req.Remark,
		Operator:       operatorName(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPermissionType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "权限类型不合法，button 类型必须携带 path 和 method"})
		case errors.Is(err, service.ErrInvalidParent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "父权限不存在"})
		default:
			log.Errorf("Create permission failed, error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建权限失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": perm})
}

// Tree 处理查询权限树的请求。
func (h *PermissionHandler) Tree(c *gin.Context) {
	tree, err := h.permissionService.Tree(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询权限树失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": tree})
}

// Get 处理查询单个权限的请求。
func (h *PermissionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	perm, err := h.permissionService.GetPermission(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "权限不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": perm})
}

// Delete 处理删除权限的请求。
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.permissionService.DeletePermission(c.Request.Context(), id, operatorName(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "权限不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功"})
}
