package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"iam-core-go/internal/service"
	"iam-core-go/pkg/log"
)

// DeptHandler 负责组织单元树相关的 API 请求。
type DeptHandler struct {
	deptService service.DeptService
}

// NewDeptHandler 创建一个新的 DeptHandler 实例。
func NewDeptHandler(deptService service.DeptService) *DeptHandler {
	return &DeptHandler{deptService: deptService}
}

// CreateDeptRequest 定义了创建组织单元 API 的请求体结构。
type CreateDeptRequest struct {
	TenantID  uint64  `json:"tenantId" binding:"required"`
	ParentID  *uint64 `json:"parentId"`
	DeptName  string  `json:"deptName" binding:"required"`
	SortOrder int     `json:"sortOrder"`
	Leader    string  `json:"leader"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
}

// Create 处理创建组织单元的请求。
func (h *DeptHandler) Create(c *gin.Context) {
	var req CreateDeptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：tenantId 和 deptName 不能为空"})
		return
	}

	dept, err := h.deptService.CreateNode(c.Request.Context(), service.CreateDeptInput{
		TenantID:  req.TenantID,
		ParentID:  req.ParentID,
		DeptName:  req.DeptName,
		SortOrder: req.SortOrder,
		Leader:    req.Leader,
		Phone:     req.Phone,
		Email:     req.Email,
		Operator:  operatorName(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidParent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "父组织单元不存在"})
			return
		}
		log.Errorf("Create dept failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建组织单元失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": dept})
}

// MoveDeptRequest 定义了搬移组织单元 API 的请求体结构。
// newParentId 为空表示提升为根节点。
type MoveDeptRequest struct {
	NewParentID *uint64 `json:"newParentId"`
}

// Move 处理搬移组织单元的请求。
func (h *DeptHandler) Move(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MoveDeptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	dept, err := h.deptService.MoveNode(c.Request.Context(), id, req.NewParentID, operatorName(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCircularReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "不能把组织单元搬到自己的子树下"})
		case errors.Is(err, service.ErrInvalidParent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "新父组织单元不存在"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "组织单元不存在"})
		default:
			log.Errorf("Move dept failed, deptId: %d, error: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "搬移组织单元失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": dept})
}

// Subtree 处理查询子树的请求，返回节点自身及其全部后代。
func (h *DeptHandler) Subtree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	depts, err := h.deptService.Subtree(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询子树失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": depts})
}

// Tree 处理查询组织单元树的请求。可用 tenantId 过滤。
func (h *DeptHandler) Tree(c *gin.Context) {
	var tenantID *uint64
	if raw := c.Query("tenantId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 tenantId 参数"})
			return
		}
		tenantID = &id
	}

	tree, err := h.deptService.Tree(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询组织单元树失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": tree})
}

// Delete 处理删除组织单元的请求。
func (h *DeptHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.deptService.DeleteNode(c.Request.Context(), id, operatorName(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrHasChildren):
			c.JSON(http.StatusBadRequest, gin.H{"error": "组织单元下仍有子节点，不能删除"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "组织单元不存在"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除组织单元失败"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功"})
}
