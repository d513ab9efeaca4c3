package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 用户点数账户表
// 记录每个规范账户的点数余额，是整个点数经济系统的核心数据
type Account struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"account_id"` // 规范账户ID（平台无关）
	Points    decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"points"`    // 点数余额
	Version   int             `gorm:"not null;default:0" json:"version"`                       // 乐观锁版本号
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
