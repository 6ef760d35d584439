package model

import "time"

// SysRole 对应于数据库中的 'sys_role' 表。
// 角色编码在租户内唯一。两个保留编码见 constants.go：
// ROLE_ACCESS 按租户预置，ROLE_ALL 仅存在于模板租户。
type SysRole struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID  uint64    `gorm:"not null;uniqueIndex:uk_role_tenant;index" json:"tenantId"`
	RoleCode  string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_role_tenant" json:"roleCode"`
	RoleName  string    `gorm:"type:varchar(128);not null" json:"roleName"`
	Status    int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	Remark    string    `gorm:"type:varchar(500)" json:"remark"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreateBy  string    `gorm:"type:varchar(64)" json:"createBy"`
	UpdateBy  string    `gorm:"type:varchar(64)" json:"updateBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysRole) TableName() string {
	return "sys_role"
}
