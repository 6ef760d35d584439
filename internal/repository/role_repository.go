package repository

import (
	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// RoleRepository 接口定义了角色的数据操作方法。
type RoleRepository interface {
	Create(role *model.SysRole) error
	FindByID(id uint64) (*model.SysRole, error)
	FindByCodeAndTenant(roleCode string, tenantID uint64) (*model.SysRole, error)
	FindByTenant(tenantID uint64) ([]model.SysRole, error)
	FindByUserID(userID uint64) ([]model.SysRole, error)
	Update(role *model.SysRole) error
	SoftDelete(id uint64, operator string) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建一个新的 RoleRepository 实例。
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// Create 在数据库中插入一个新的角色记录。
func (r *roleRepository) Create(role *model.SysRole) error {
	return r.db.Create(role).Error
}

// FindByID 根据 ID 查找未删除的角色。
func (r *roleRepository) FindByID(id uint64) (*model.SysRole, error) {
	var role model.SysRole
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByCodeAndTenant 按角色编码和租户查找未删除的角色。
func (r *roleRepository) FindByCodeAndTenant(roleCode string, tenantID uint64) (*model.SysRole, error) {
	var role model.SysRole
	err := r.db.Where("role_code = ? AND tenant_id = ? AND is_deleted = ?", roleCode, tenantID, false).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByTenant 检索租户下所有未删除的角色。
func (r *roleRepository) FindByTenant(tenantID uint64) ([]model.SysRole, error) {
	var roles []model.SysRole
	err := r.db.Where("tenant_id = ? AND is_deleted = ?", tenantID, false).
		Order("sort_order, id").Find(&roles).Error
	return roles, err
}

// FindByUserID 通过用户角色关联表检索用户的所有有效角色。
func (r *roleRepository) FindByUserID(userID uint64) ([]model.SysRole, error) {
	var roles []model.SysRole
	err := r.db.Joins("JOIN sys_user_role ON sys_user_role.role_id = sys_role.id").
		Where("sys_user_role.user_id = ? AND sys_role.is_deleted = ? AND sys_role.status = ?",
			userID, false, model.StatusActive).
		Find(&roles).Error
	return roles, err
}

// Update 更新一个已存在的角色记录。
func (r *roleRepository) Update(role *model.SysRole) error {
	return r.db.Save(role).Error
}

// SoftDelete 将角色标记为已删除。
func (r *roleRepository) SoftDelete(id uint64, operator string) error {
	return r.db.Model(&model.SysRole{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "update_by": operator}).Error
}
