package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"iam-core-go/internal/service"
	"iam-core-go/pkg/log"
)

// RoleHandler 负责角色与授权关系相关的 API 请求。
type RoleHandler struct {
	roleService service.RoleService
}

// NewRoleHandler 创建一个新的 RoleHandler 实例。
func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// CreateRoleRequest 定义了创建角色 API 的请求体结构。
type CreateRoleRequest struct {
	TenantID  uint64 `json:"tenantId"`
	RoleCode  string `json:"roleCode" binding:"required"`
	RoleName  string `json:"roleName" binding:"required"`
	SortOrder int    `json:"sortOrder"`
	Remark    string `json:"remark"`
}

// Create 处理创建角色的请求。
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：roleCode 和 roleName 不能为空"})
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), service.CreateRoleInput{
		TenantID:  req.TenantID,
		RoleCode:  req.RoleCode,
		RoleName:  req.RoleName,
		SortOrder: req.SortOrder,
		Remark:    req.Remark,
		Operator:  operatorName(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrRoleCodeReserved) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "该角色编码是保留编码"})
			return
		}
		log.Errorf("Create role failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建角色失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": role})
}

// List 处理查询角色列表的请求。
func (h *RoleHandler) List(c *gin.Context) {
	tenantID, err := strconv.ParseUint(c.Query("tenantId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 tenantId 参数"})
		return
	}
	roles, err := h.roleService.ListRoles(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询角色列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": roles})
}

// UpdateRoleRequest 定义了更新角色 API 的请求体结构。
type UpdateRoleRequest struct {
	RoleName  string `json:"roleName"`
	SortOrder *int   `json:"sortOrder"`
	Status    *int   `json:"status"`
	Remark    string `json:"remark"`
}

// Update 处理更新角色的请求。
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "角色不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询角色失败"})
		return
	}
	if req.RoleName != "" {
		role.RoleName = req.RoleName
	}
	if req.SortOrder != nil {
		role.SortOrder = *req.SortOrder
	}
	if req.Status != nil {
		role.Status = *req.Status
	}
	if req.Remark != "" {
		role.Remark = req.Remark
	}
	role.UpdateBy = operatorName(c)

	if err := h.roleService.UpdateRole(c.Request.Context(), role); err != nil {
		log.Errorf("Update role failed, roleId: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新角色失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": role})
}

// Delete 处理删除角色的请求。
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.roleService.DeleteRole(c.Request.Context(), id, operatorName(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除角色失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功"})
}

// AssignPermissionsRequest 定义了角色挂权限 API 的请求体结构。
type AssignPermissionsRequest struct {
	PermissionIDs []uint64 `json:"permissionIds" binding:"required"`
}

// AssignPermissions 处理给角色增量挂权限的请求。
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：permissionIds 不能为空"})
		return
	}

	if err := h.roleService.AssignPermissions(c.Request.Context(), id, req.PermissionIDs); err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "角色不存在"})
			return
		}
		log.Errorf("Assign permissions failed, roleId: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "挂载角色权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "挂载成功"})
}

// RevokePermission 处理摘除角色权限的请求。
func (h *RoleHandler) RevokePermission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	permID, ok := parseIDParam(c, "permissionId")
	if !ok {
		return
	}
	if err := h.roleService.RevokePermission(c.Request.Context(), id, permID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "摘除角色权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "摘除成功"})
}

// ListPermissions 处理查询角色有效权限的请求。
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	perms, err := h.roleService.ListRolePermissions(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询角色权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": perms})
}

// UserRoleRequest 定义了用户角色绑定 API 的请求体结构。
type UserRoleRequest struct {
	UserID uint64 `json:"userId" binding:"required"`
	RoleID uint64 `json:"roleId" binding:"required"`
}

// AssignUserRole 处理给用户挂角色的请求。
func (h *RoleHandler) AssignUserRole(c *gin.Context) {
	var req UserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：userId 和 roleId 不能为空"})
		return
	}
	if err := h.roleService.AssignUserRole(c.Request.Context(), req.UserID, req.RoleID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "绑定用户角色失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "绑定成功"})
}

// RevokeUserRole 处理摘除用户角色的请求。
func (h *RoleHandler) RevokeUserRole(c *gin.Context) {
	var req UserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：userId 和 roleId 不能为空"})
		return
	}
	if err := h.roleService.RevokeUserRole(c.Request.Context(), req.UserID, req.RoleID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "解绑用户角色失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "解绑成功"})
}
