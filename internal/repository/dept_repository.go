package repository

import (
	"gorm.io/gorm"

	"iam-core-go/internal/model"
)

// DeptRepository 接口定义了组织单元的数据操作方法。
// 子树相关查询全部基于 path 字段的字符串前缀匹配。
type DeptRepository interface {
	Create(dept *model.SysDept) error
	FindByID(id uint64) (*model.SysDept, error)
	// FindByPathPrefix 检索 path 以 prefix 开头的全部未删除且启用的节点，
	// 按 path、sort_order 排序。这是子树查询的唯一机制。
	FindByPathPrefix(prefix string) ([]model.SysDept, error)
	// FindAllByPathPrefix 同上，但包含被禁用的节点，只排除已删除的。
	// 子树搬移的路径改写必须用这个：禁用节点仍在树上，漏掉它会让
	// 其路径脱离新位置。
	FindAllByPathPrefix(prefix string) ([]model.SysDept, error)
	// FindAll 检索未删除的节点；tenantID 为 nil 时跨租户返回。
	FindAll(tenantID *uint64) ([]model.SysDept, error)
	HasChildren(id uint64) (bool, error)
	Update(dept *model.SysDept) error
	SoftDelete(id uint64, operator string) error
	// Transaction 在单个存储事务中执行 fn；fn 通过事务绑定的仓库操作。
	// 节点搬移的后代路径改写必须走这里，避免读者观察到部分更新的树。
	Transaction(fn func(tx DeptRepository) error) error
}

type deptRepository struct {
	db *gorm.DB
}

// NewDeptRepository 创建一个新的 DeptRepository 实例。
func NewDeptRepository(db *gorm.DB) DeptRepository {
	return &deptRepository{db: db}
}

// Create 在数据库中插入一个新的组织单元记录。
func (r *deptRepository) Create(dept *model.SysDept) error {
	return r.db.Create(dept).Error
}

// FindByID 根据 ID 查找未删除的组织单元。
func (r *deptRepository) FindByID(id uint64) (*model.SysDept, error) {
	var dept model.SysDept
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindByPathPrefix 用 LIKE 'prefix%' 检索子树。
func (r *deptRepository) FindByPathPrefix(prefix string) ([]model.SysDept, error) {
	var depts []model.SysDept
	err := r.db.Where("path LIKE ? AND is_deleted = ? AND status = ?",
		prefix+"%", false, model.StatusActive).
		Order("path, sort_order").Find(&depts).Error
	return depts, err
}

// FindAllByPathPrefix 用 LIKE 'prefix%' 检索子树，含禁用节点。
func (r *deptRepository) FindAllByPathPrefix(prefix string) ([]model.SysDept, error) {
	var depts []model.SysDept
	err := r.db.Where("path LIKE ? AND is_deleted = ?", prefix+"%", false).
		Order("path, sort_order").Find(&depts).Error
	return depts, err
}

// FindAll 检索未删除的组织单元，按 path、sort_order 排序。
func (r *deptRepository) FindAll(tenantID *uint64) ([]model.SysDept, error) {
	var depts []model.SysDept
	query := r.db.Where("is_deleted = ?", false)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	err := query.Order("path, sort_order").Find(&depts).Error
	return depts, err
}

// HasChildren 判断节点下是否存在未删除的直接子节点。
func (r *deptRepository) HasChildren(id uint64) (bool, error) {
	var count int64
	err := r.db.Model(&model.SysDept{}).
		Where("parent_id = ? AND is_deleted = ?", id, false).
		Count(&count).Error
	return count > 0, err
}

// Update 更新一个已存在的组织单元记录。
func (r *deptRepository) Update(dept *model.SysDept) error {
	return r.db.Save(dept).Error
}

// SoftDelete 将组织单元标记为已删除。
func (r *deptRepository) SoftDelete(id uint64, operator string) error {
	return r.db.Model(&model.SysDept{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "update_by": operator}).Error
}

// Transaction 在 GORM 事务中执行 fn。
func (r *deptRepository) Transaction(fn func(tx DeptRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&deptRepository{db: tx})
	})
}
