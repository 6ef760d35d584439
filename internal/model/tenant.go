package model

import "time"

// SysTenant 对应于数据库中的 'sys_tenant' 表。
type SysTenant struct {
	// ID 由发号器分配，不使用数据库自增。
	ID          uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantName  string `gorm:"type:varchar(128);not null" json:"tenantName"`
	CompanyName string `gorm:"type:varchar(128)" json:"companyName"`
	CompanyCode string `gorm:"type:varchar(64)" json:"companyCode"`
	// ContactPerson 与 ContactPhone 记录租户的联系信息。
	ContactPerson string `gorm:"type:varchar(64)" json:"contactPerson"`
	ContactPhone  string `gorm:"type:varchar(32)" json:"contactPhone"`
	// Status 0 表示启用，1 表示禁用。
	Status    int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	Remark    string    `gorm:"type:varchar(500)" json:"remark"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreateBy  string    `gorm:"type:varchar(64)" json:"createBy"`
	UpdateBy  string    `gorm:"type:varchar(64)" json:"updateBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (SysTenant) TableName() string {
	return "sys_tenant"
}
