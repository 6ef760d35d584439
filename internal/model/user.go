package model

import "time"

// SysUser 对应于数据库中的 'sys_user' 表。
// 用户名在租户内唯一；同名用户可存在于不同租户。
type SysUser struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID uint64 `gorm:"not null;uniqueIndex:uk_user_tenant;index" json:"tenantId"`
	UserName string `gorm:"type:varchar(64);not null;uniqueIndex:uk_user_tenant" json:"userName"`
	NickName string `gorm:"type:varchar(64)" json:"nickName"`
	Email    string `gorm:"type:varchar(128)" json:"email"`
	Phone    string `gorm:"type:varchar(32)" json:"phone"`
	// DeptID 指向用户所属的组织单元。
	DeptID    uint64    `gorm:"index" json:"deptId"`
	Status    int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	Remark    string    `gorm:"type:varchar(500)" json:"remark"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreateBy  string    `gorm:"type:varchar(64)" json:"createBy"`
	UpdateBy  string    `gorm:"type:varchar(64)" json:"updateBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysUser) TableName() string {
	return "sys_user"
}
