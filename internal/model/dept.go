package model

import "time"

// SysDept 对应于数据库中的 'sys_dept' 表，即组织单元节点。
//
// Path 是 Materialized Path 编码，形如 "/root_id/.../self_id/"，
// 恒以 "/" + 自身 ID + "/" 结尾；Depth 等于路径段数减一（根节点为 0）。
// 子树查询与环检测都只依赖 path 的字符串前缀匹配，这是该表的核心
// 设计取舍：读优化，写入时把成本摊到所有后代的路径改写上。
type SysDept struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID uint64 `gorm:"not null;index" json:"tenantId"`
	// ParentID 指向父组织单元，根节点为 NULL。
	ParentID *uint64 `gorm:"index" json:"parentId"`
	DeptName string  `gorm:"type:varchar(128);not null" json:"deptName"`
	// Path 的前缀索引支撑 LIKE 'prefix%' 子树查询。
	Path      string    `gorm:"type:varchar(500);not null;index:idx_dept_path,length:255" json:"path"`
	Depth     int       `gorm:"not null;default:0" json:"depth"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	Leader    string    `gorm:"type:varchar(64)" json:"leader"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	Email     string    `gorm:"type:varchar(128)" json:"email"`
	Status    int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreateBy  string    `gorm:"type:varchar(64)" json:"createBy"`
	UpdateBy  string    `gorm:"type:varchar(64)" json:"updateBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysDept) TableName() string {
	return "sys_dept"
}

// DeptNode 是组织单元树形结构中的一个节点。
type DeptNode struct {
	ID        uint64      `json:"id"`
	TenantID  uint64      `json:"tenantId"`
	ParentID  *uint64     `json:"parentId"`
	DeptName  string      `json:"deptName"`
	Path      string      `json:"path"`
	Depth     int         `json:"depth"`
	SortOrder int         `json:"sortOrder"`
	Status    int         `json:"status"`
	Children  []*DeptNode `json:"children"`
}
