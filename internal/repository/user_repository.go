package repository

import (
	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// UserRepository 接口定义了用户的数据操作方法。
type UserRepository interface {
	Create(user *model.SysUser) error
	FindByID(id uint64) (*model.SysUser, error)
	FindByUserNameAndTenant(userName string, tenantID uint64) (*model.SysUser, error)
	FindByTenant(tenantID uint64, offset, limit int) ([]model.SysUser, error)
	Update(user *model.SysUser) error
	SoftDelete(id uint64, operator string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 在数据库中插入一个新的用户记录。
func (r *userRepository) Create(user *model.SysUser) error {
	return r.db.Create(user).Error
}

// FindByID 根据 ID 查找未删除的用户。
func (r *userRepository) FindByID(id uint64) (*model.SysUser, error) {
	var user model.SysUser
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUserNameAndTenant 按用户名和租户查找未删除的用户。
// 用户名只在租户内唯一，因此二者必须联合查询。
func (r *userRepository) FindByUserNameAndTenant(userName string, tenantID uint64) (*model.SysUser, error) {
	var user model.SysUser
	err := r.db.Where("user_name = ? AND tenant_id = ? AND is_deleted = ?", userName, tenantID, false).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByTenant 分页检索租户下所有未删除的用户。
func (r *userRepository) FindByTenant(tenantID uint64, offset, limit int) ([]model.SysUser, error) {
	var users []model.SysUser
	err := r.db.Where("tenant_id = ? AND is_deleted = ?", tenantID, false).
		Order("id").Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

// Update 更新一个已存在的用户记录。
func (r *userRepository) Update(user *model.SysUser) error {
	return r.db.Save(user).Error
}

// SoftDelete 将用户标记为已删除。
func (r *userRepository) SoftDelete(id uint64, operator string) error {
	return r.db.Model(&model.SysUser{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "update_by": operator}).Error
}
