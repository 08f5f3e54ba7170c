package models

import "time"

// AdminLog 记录管理员绕过状态机的操作（目前只有硬删除）
type AdminLog struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ActorID       uint      `gorm:"index" json:"actor_id"`
	ActorUsername string    `gorm:"size:255" json:"actor_username"`
	Action        string    `gorm:"size:64;not null" json:"action"`
	TargetID      uint      `gorm:"index" json:"target_id"`
	Detail        *string   `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (AdminLog) TableName() string { return "tsd_admin_log" }
