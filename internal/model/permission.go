package model

import "time"

// SysPermission 对应于数据库中的 'sys_permission' 表。
//
// 权限行本身不带租户字段：租户通过所属角色的关联行引用权限。
// 把权限复制给一个租户时，复制的是 sys_role_permission 关联行，
// 权限定义是共享的。
type SysPermission struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	PermissionName string `gorm:"type:varchar(128);not null" json:"permissionName"`
	PermissionCode string `gorm:"type:varchar(128);not null;uniqueIndex" json:"permissionCode"`
	// PermissionType 取值 folder/menu/button；folder 和 menu 是导航节点，
	// button 携带可执行的 API 路径与 HTTP 方法。
	PermissionType string `gorm:"type:varchar(20);not null;default:'menu'" json:"permissionType"`
	// ParentID 指向父权限节点，顶级节点为 NULL。
	ParentID *uint64 `gorm:"index" json:"parentId"`
	// Path 统一存储路径：folder/menu 为前端路由路径，button 为 API 路径。
	// 支持尾部 * 通配与 {param} 参数段。
	Path string `gorm:"type:varchar(500)" json:"path"`
	// Method 仅 button 类型使用：GET/POST/PUT/DELETE/PATCH。
	Method    string    `gorm:"type:varchar(16)" json:"method"`
	Component string    `gorm:"type:varchar(500)" json:"component"`
	Icon      string    `gorm:"type:varchar(50)" json:"icon"`
	Visible   bool      `gorm:"not null;default:true" json:"visible"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	Status    int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	Remark    string    `gorm:"type:varchar(500)" json:"remark"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreateBy  string    `gorm:"type:varchar(64)" json:"createBy"`
	UpdateBy  string    `gorm:"type:varchar(64)" json:"updateBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysPermission) TableName() string {
	return "sys_permission"
}

// PermissionNode 是权限树形结构中的一个节点。
type PermissionNode struct {
	ID             uint64            `json:"id"`
	PermissionName string            `json:"permissionName"`
	PermissionCode string            `json:"permissionCode"`
	PermissionType string            `json:"permissionType"`
	ParentID       *uint64           `json:"parentId"`
	Path           string            `json:"path"`
	Method         string            `json:"method"`
	SortOrder      int               `json:"sortOrder"`
	Children       []*PermissionNode `json:"children"`
}
