package repository

import (
	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// PermissionRepository 接口定义了权限的数据操作方法。
type PermissionRepository interface {
	Create(perm *model.SysPermission) error
	FindByID(id uint64) (*model.SysPermission, error)
	FindAllActive() ([]model.SysPermission, error)
	// FindByRoleID 通过角色权限关联表检索角色持有的全部有效权限。
	FindByRoleID(roleID uint64) ([]model.SysPermission, error)
	Update(perm *model.SysPermission) error
	SoftDelete(id uint64, operator string) error
}

type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository 创建一个新的 PermissionRepository 实例。
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

// Create 在数据库中插入一个新的权限记录。
func (r *permissionRepository) Create(perm *model.SysPermission) error {
	return r.db.Create(perm).Error
}

// FindByID 根据 ID 查找未删除的权限。
func (r *permissionRepository) FindByID(id uint64) (*model.SysPermission, error) {
	var perm model.SysPermission
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// FindAllActive 检索所有未删除且启用的权限，按树序返回。
func (r *permissionRepository) FindAllActive() ([]model.SysPermission, error) {
	var perms []model.SysPermission
	err := r.db.Where("is_deleted = ? AND status = ?", false, model.StatusActive).
		Order("sort_order, id").Find(&perms).Error
	return perms, err
}

// FindByRoleID 检索角色持有的全部有效权限（未删除且启用）。
func (r *permissionRepository) FindByRoleID(roleID uint64) ([]model.SysPermission, error) {
	var perms []model.SysPermission
	err := r.db.Joins("JOIN sys_role_permission ON sys_role_permission.permission_id = sys_permission.id").
		Where("sys_role_permission.role_id = ? AND sys_permission.is_deleted = ? AND sys_permission.status = ?",
			roleID, false, model.StatusActive).
		Find(&perms).Error
	return perms, err
}

// Update 更新一个已存在的权限记录。
func (r *permissionRepository) Update(perm *model.SysPermission) error {
	return r.db.Save(perm).Error
}

// SoftDelete 将权限标记为已删除。
func (r *permissionRepository) SoftDelete(id uint64, operator string) error {
	return r.db.Model(&model.SysPermission{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "update_by": operator}).Error
}
