package models

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator || r == RoleManager
}

// User 是操作员/管理员账号；认证由外部完成，这里只保存身份与角色
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Role      Role   `gorm:"size:16;not null" json:"role"`
	CompanyID *uint  `gorm:"index" json:"company_id"`

	LastSeenAt *time.Time `gorm:"index" json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// CurrentUser is the authenticated caller as seen by the ledger.
type CurrentUser struct {
	ID        uint  `json:"id"`
	Role      Role  `json:"role"`
	CompanyID *uint `json:"company_id"`
}

func (u CurrentUser) IsAdmin() bool { return u.Role == RoleAdmin }
