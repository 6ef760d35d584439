package model

// SysUserRole 对应于数据库中的 'sys_user_role' 关联表。
// 纯 (user_id, role_id) 对，唯一性由二元组保证。
type SysUserRole struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID uint64 `gorm:"not null;uniqueIndex:uk_user_role" json:"userId"`
	RoleID uint64 `gorm:"not null;uniqueIndex:uk_user_role;index" json:"roleId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysUserRole) TableName() string {
	return "sys_user_role"
}

// SysRolePermission 对应于数据库中的 'sys_role_permission' 关联表。
// 模板复制机制复制的就是这些行，底层权限行是共享的。
type SysRolePermission struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RoleID       uint64 `gorm:"not null;uniqueIndex:uk_role_perm;index" json:"roleId"`
	PermissionID uint64 `gorm:"not null;uniqueIndex:uk_role_perm" json:"permissionId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysRolePermission) TableName() string {
	return "sys_role_permission"
}
