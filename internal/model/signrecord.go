package model

import (
	"time"
)

// ============================================================================
// 签到奖励类型常量
// ============================================================================

const (
	BonusTypeNone   = 0 // 无连签奖励
	BonusTypeFixed  = 1 // 固定周期奖励（爬坡阶段）
	BonusTypeRandom = 2 // 随机周期奖励（稳定阶段）
)

// SignRecord 签到记录表
// 每个账户一条记录，保存连签状态机和最近一次签到的明细快照
//
// 【重要】快照字段（last_*）只用于"签到详情"查询，不是历史流水；
// 历史变动由 account_transaction 流水表承担
type SignRecord struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"account_id"`
	LastSignAt  *time.Time `json:"last_sign_at"`  // 上次签到时间，NULL 表示从未签到
	LastBonusAt *time.Time `json:"last_bonus_at"` // 上次发放连签奖励的时间

	ContinuousDays int `gorm:"not null;default:0" json:"continuous_days"` // 当前连续签到天数
	StreakStage    int `gorm:"not null;default:0" json:"streak_stage"`    // 已跨越的固定奖励阶段数，只增不减

	LastBasePoints  int    `gorm:"not null;default:0" json:"last_base_points"`
	LastBonusPoints int    `gorm:"not null;default:0" json:"last_bonus_points"`
	LastBonusType   int    `gorm:"not null;default:0" json:"last_bonus_type"`
	LastEventPoints int    `gorm:"not null;default:0" json:"last_event_points"`
	LastEventText   string `gorm:"type:varchar(255);not null;default:''" json:"last_event_text"`

	Version   int       `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SignRecord) TableName() string {
	return "sign_record"
}
