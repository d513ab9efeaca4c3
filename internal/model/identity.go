package model

import (
	"time"
)

// Identity 平台身份映射表
// 把（平台, 平台用户ID）映射到规范账户ID，同一个人在不同聊天平台共享一个账户
type Identity struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Platform       string    `gorm:"type:varchar(32);uniqueIndex:idx_platform_user;not null" json:"platform"`
	PlatformUserID string    `gorm:"type:varchar(64);uniqueIndex:idx_platform_user;not null" json:"platform_user_id"`
	AccountID      string    `gorm:"type:varchar(32);index;not null" json:"account_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Identity) TableName() string {
	return "identity"
}
