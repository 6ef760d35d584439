package repository

import (
	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// RelationRepository 接口定义了用户-角色、角色-权限关联的数据操作方法。
type RelationRepository interface {
	CreateUserRole(link *model.SysUserRole) error
	DeleteUserRole(userID, roleID uint64) error
	HasUserRole(userID, roleID uint64) (bool, error)

	CreateRolePermission(link *model.SysRolePermission) error
	BatchCreateRolePermissions(links []model.SysRolePermission) error
	DeleteRolePermission(roleID, permissionID uint64) error
	CountByRoleID(roleID uint64) (int64, error)
	FindPermissionIDsByRoleID(roleID uint64) ([]uint64, error)
}

type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository 创建一个新的 RelationRepository 实例。
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

// CreateUserRole 建立用户与角色的关联。
func (r *relationRepository) CreateUserRole(link *model.SysUserRole) error {
	return r.db.Create(link).Error
}

// DeleteUserRole 移除用户与角色的关联。
func (r *relationRepository) DeleteUserRole(userID, roleID uint64) error {
	return r.db.Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&model.SysUserRole{}).Error
}

// HasUserRole 判断用户与角色的关联是否存在。
func (r *relationRepository) HasUserRole(userID, roleID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&model.SysUserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	return count > 0, err
}

// CreateRolePermission 建立角色与权限的关联。
func (r *relationRepository) CreateRolePermission(link *model.SysRolePermission) error {
	return r.db.Create(link).Error
}

// BatchCreateRolePermissions 在单个事务中批量建立角色权限关联。
// 模板权限复制走这里：要么全部成功，要么全部回滚。
func (r *relationRepository) BatchCreateRolePermissions(links []model.SysRolePermission) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&links).Error
	})
}

// DeleteRolePermission 移除角色与权限的关联。
func (r *relationRepository) DeleteRolePermission(roleID, permissionID uint64) error {
	return r.db.Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&model.SysRolePermission{}).Error
}

// CountByRoleID 统计角色当前持有的权限关联数。
func (r *relationRepository) CountByRoleID(roleID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.SysRolePermission{}).
		Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// FindPermissionIDsByRoleID 检索角色关联的全部权限 ID。
func (r *relationRepository) FindPermissionIDsByRoleID(roleID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&model.SysRolePermission{}).
		Where("role_id = ?", roleID).Pluck("permission_id", &ids).Error
	return ids, err
}
