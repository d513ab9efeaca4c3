package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeSign        = "SIGN"         // 签到奖励入账
	TransactionTypeTransferOut = "TRANSFER_OUT" // 转账转出
	TransactionTypeTransferIn  = "TRANSFER_IN"  // 转账到账（已扣手续费）
	TransactionTypeBurn        = "BURN"         // 投入黑洞（销毁）
	TransactionTypeAdjust      = "ADJUST"       // 管理员调整
)

// ============================================================================
// 账户流水实体
// ============================================================================

// AccountTransaction 账户流水表
// 记录账户的每一笔点数变动，是对账（能量守恒）的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水记录交易前后余额 —— 便于校验余额一致性
// 3. 转账的两条流水共享同一个 transfer_no —— 便于配对对账
type AccountTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	AccountID     string          `gorm:"type:varchar(32);index;not null" json:"account_id"`
	TransferNo    string          `gorm:"type:varchar(64);index" json:"transfer_no"`      // 关联转账号，非转账为空
	Amount        decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`     // 变动量（正数入账，负数出账）
	Type          string          `gorm:"type:varchar(20);not null" json:"type"`          // 交易类型
	BalanceBefore decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"balance_after"`
	Remark        string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AccountTransaction) TableName() string {
	return "account_transaction"
}
