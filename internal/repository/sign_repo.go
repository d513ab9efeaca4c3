package repository

import (
	"context"
	"errors"

	"pointsystem/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSignRecordNotFound = errors.New("签到记录不存在")

type SignRepository struct {
	db *gorm.DB
}

func NewSignRepository(db *gorm.DB) *SignRepository {
	return &SignRepository{db: db}
}

func (r *SignRepository) GetByAccountID(ctx context.Context, accountID string) (*model.SignRecord, error) {
	var record model.SignRecord
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetOrCreateForUpdate 首次签到时创建记录，事务内行锁读取
// 冷却检查和状态更新都基于这次带锁的读，避免并发重复签到
func (r *SignRepository) GetOrCreateForUpdate(ctx context.Context, tx *gorm.DB, accountID string) (*model.SignRecord, error) {
	newRecord := &model.SignRecord{
		AccountID: accountID,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoNothing: true,
		}).
		Create(newRecord).Error
	if err != nil {
		return nil, err
	}

	var record model.SignRecord
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save 带乐观锁校验持久化签到记录，版本不匹配时返回 ErrOptimisticLock
func (r *SignRepository) Save(ctx context.Context, tx *gorm.DB, record *model.SignRecord) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.SignRecord{}).
		Where("account_id = ? AND version = ?", record.AccountID, record.Version).
		Updates(map[string]interface{}{
			"last_sign_at":      record.LastSignAt,
			"last_bonus_at":     record.LastBonusAt,
			"continuous_days":   record.ContinuousDays,
			"streak_stage":      record.StreakStage,
			"last_base_points":  record.LastBasePoints,
			"last_bonus_points": record.LastBonusPoints,
			"last_bonus_type":   record.LastBonusType,
			"last_event_points": record.LastEventPoints,
			"last_event_text":   record.LastEventText,
			"version":           gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}
