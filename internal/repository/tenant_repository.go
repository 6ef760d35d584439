// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// TenantRepository 接口定义了租户的数据操作方法。
type TenantRepository interface {
	Create(tenant *model.SysTenant) error
	FindByID(id uint64) (*model.SysTenant, error)
	FindAll(offset, limit int) ([]model.SysTenant, error)
	Update(tenant *model.SysTenant) error
	SoftDelete(id uint64, operator string) error
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建一个新的 TenantRepository 实例。
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create 在数据库中插入一个新的租户记录。
func (r *tenantRepository) Create(tenant *model.SysTenant) error {
	return r.db.Create(tenant).Error
}

// FindByID 根据 ID 查找未删除的租户。
func (r *tenantRepository) FindByID(id uint64) (*model.SysTenant, error) {
	var tenant model.SysTenant
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// FindAll 分页检索所有未删除的租户。
func (r *tenantRepository) FindAll(offset, limit int) ([]model.SysTenant, error) {
	var tenants []model.SysTenant
	err := r.db.Where("is_deleted = ?", false).
		Order("id").Offset(offset).Limit(limit).
		Find(&tenants).Error
	return tenants, err
}

// Update 更新一个已存在的租户记录。
func (r *tenantRepository) Update(tenant *model.SysTenant) error {
	return r.db.Save(tenant).Error
}

// SoftDelete 将租户标记为已删除。
func (r *tenantRepository) SoftDelete(id uint64, operator string) error {
	return r.db.Model(&model.SysTenant{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "update_by": operator}).Error
}
