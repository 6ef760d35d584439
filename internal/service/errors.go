// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 树不变量错误：一律原样返回给调用方作为校验失败，绝不静默纠正。
var (
	// ErrInvalidParent 表示指定的父节点不存在于未删除节点中。
	ErrInvalidParent = errors.New("service: parent node not found")
	// ErrCircularReference 表示搬移会让节点成为自己的后代。
	ErrCircularReference = errors.New("service: move would create a circular reference")
	// ErrHasChildren 表示节点仍有未删除的子节点，不能删除。
	ErrHasChildren = errors.New("service: node still has children")
)

// ErrRoleNotFound 表示目标角色不存在。
var ErrRoleNotFound = errors.New("service: role not found")

var (
	// ErrTemplateTenantProtected 表示模板租户不允许删除或禁用。
	ErrTemplateTenantProtected = errors.New("service: template tenant is protected")
	// ErrRoleCodeReserved 表示 ROLE_ALL 只能存在于模板租户下。
	ErrRoleCodeReserved = errors.New("service: role code is reserved for the template tenant")
	// ErrInvalidPermissionType 表示权限类型不合法或缺少必填字段。
	ErrInvalidPermissionType = errors.New("service: invalid permission type")
)
