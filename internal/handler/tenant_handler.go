package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"iam-core-go/internal/middleware"
	"iam-core-go/internal/service"
	"iam-core-go/pkg/log"
)

// TenantHandler 负责租户管理相关的 API 请求。
type TenantHandler struct {
	tenantService service.TenantService
}

// NewTenantHandler 创建一个新的 TenantHandler 实例。
func NewTenantHandler(tenantService service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// CreateTenantRequest 定义了创建租户 API 的请求体结构。
type CreateTenantRequest struct {
	TenantName    string `json:"tenantName" binding:"required"`
	CompanyName   string `json:"companyName"`
	CompanyCode   string `json:"companyCode"`
	ContactPerson string `json:"contactPerson"`
	ContactPhone  string `json:"contactPhone"`
	Remark        string `json:"remark"`
}

// Create 处理创建租户的请求。
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：tenantName 不能为空"})
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), service.CreateTenantInput{
		TenantName:    req.TenantName,
		CompanyName:   req.CompanyName,
		CompanyCode:   req.CompanyCode,
		ContactPerson: req.ContactPerson,
		ContactPhone:  req.ContactPhone,
		Remark:        req.Remark,
		Operator:      operatorName(c),
	})
	if err != nil {
		log.Errorf("Create tenant failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建租户失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": tenant})
}

// Get 处理查询单个租户的请求。
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetTenant(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "租户不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询租户失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": tenant})
}

// List 处理分页查询租户列表的请求。
func (h *TenantHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	tenants, err := h.tenantService.ListTenants(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询租户列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": tenants})
}

// UpdateTenantRequest 定义了更新租户 API 的请求体结构。
type UpdateTenantRequest struct {
	TenantName    string `json:"tenantName"`
	CompanyName   string `json:"companyName"`
	ContactPerson string `json:"contactPerson"`
	ContactPhone  string `json:"contactPhone"`
	Status        *int   `json:"status"`
	Remark        string `json:"remark"`
}

// Update 处理更新租户的请求。
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	tenant, err := h.tenantService.GetTenant(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "租户不存在"})
		return
	}
	if req.TenantName != "" {
		tenant.TenantName = req.TenantName
	}
	if req.CompanyName != "" {
		tenant.CompanyName = req.CompanyName
	}
	if req.ContactPerson != "" {
		tenant.ContactPerson = req.ContactPerson
	}
	if req.ContactPhone != "" {
		tenant.ContactPhone = req.ContactPhone
	}
	if req.Remark != "" {
		tenant.Remark = req.Remark
	}
	if req.Status != nil {
		tenant.Status = *req.Status
	}
	tenant.UpdateBy = operatorName(c)

	if err := h.tenantService.UpdateTenant(c.Request.Context(), tenant); err != nil {
		if errors.Is(err, service.ErrTemplateTenantProtected) {
			c.JSON(http.StatusForbidden, gin.H{"error": "模板租户不允许禁用"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新租户失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": tenant})
}

// Delete 处理删除租户的请求。
func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.tenantService.DeleteTenant(c.Request.Context(), id, operatorName(c)); err != nil {
		if errors.Is(err, service.ErrTemplateTenantProtected) {
			c.JSON(http.StatusForbidden, gin.H{"error": "模板租户不允许删除"})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "租户不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除租户失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功"})
}

// parseIDParam 从路径参数中解析 uint64 ID，失败时直接响应 400。
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 ID 参数"})
		return 0, false
	}
	return id, true
}

// operatorName 取当前请求的操作者用户名，未鉴权的内部调用记为 system。
func operatorName(c *gin.Context) string {
	if access, ok := middleware.GetAccessContext(c); ok {
		return access.UserName
	}
	return "system"
}
