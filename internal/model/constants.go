// Package model 定义了与数据库表对应的 Go 结构体。
package model

// 租户相关常量。
const (
	// TemplateTenantID 是模板租户的保留 ID。模板租户持有权限基线，
	// 永不删除，也不需要按租户做基线预置。
	TemplateTenantID uint64 = 0
)

// 角色相关常量。
const (
	// RoleAccess 是每个租户的外部访问基线角色编码。
	RoleAccess = "ROLE_ACCESS"
	// RoleAll 是跨租户超管角色编码，只允许存在于模板租户下。
	RoleAll = "ROLE_ALL"

	// TemplateAccessRoleID 是模板租户 ROLE_ACCESS 角色的固定 ID，
	// 角色缺失时按此 ID 创建。
	TemplateAccessRoleID uint64 = 1
)

// 记录状态：0 启用，1 禁用。
const (
	StatusActive   = 0
	StatusDisabled = 1
)

// 权限类型。folder/menu 为导航节点，button 才携带可执行的 (path, method) 对。
const (
	PermissionTypeFolder = "folder"
	PermissionTypeMenu   = "menu"
	PermissionTypeButton = "button"
)
