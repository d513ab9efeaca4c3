package repository

import (
	"context"
	"errors"

	"pointsystem/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound = errors.New("账户不存在")
	ErrOptimisticLock  = errors.New("乐观锁冲突，请重试")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetForUpdate 行级锁读取，必须在事务内调用
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, accountID string) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Adjust 原子增减余额，amount 为负即扣减
// 账户级别不做下限校验（管理员可以调成负数），转账的余额校验由调用方用行锁读完成
func (r *AccountRepository) Adjust(ctx context.Context, tx *gorm.DB, accountID string, amount decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{
			"points":  gorm.Expr("points + ?", amount),
			"version": gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetPoints 无条件覆盖余额（管理员操作），账户不存在时创建
func (r *AccountRepository) SetPoints(ctx context.Context, accountID string, amount decimal.Decimal) error {
	account := &model.Account{
		AccountID: accountID,
		Points:    amount,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":  amount,
				"version": gorm.Expr("version + 1"),
			}),
		}).
		Create(account).Error
}

// Sum 汇总排除名单之外所有账户的余额，用于能量守恒报告
func (r *AccountRepository) Sum(ctx context.Context, excluded []string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	query := r.db.WithContext(ctx).Model(&model.Account{}).Select("COALESCE(SUM(points), 0)")
	if len(excluded) > 0 {
		query = query.Where("account_id NOT IN ?", excluded)
	}
	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// GetOrCreateForUpdate 事务内的懒创建 + 行锁读取
// 账户懒创建：首次产生余额变动时才落库
func (r *AccountRepository) GetOrCreateForUpdate(ctx context.Context, tx *gorm.DB, accountID string) (*model.Account, error) {
	newAccount := &model.Account{
		AccountID: accountID,
		Points:    decimal.Zero,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoNothing: true,
		}).
		Create(newAccount).Error
	if err != nil {
		return nil, err
	}
	return r.GetForUpdate(ctx, tx, accountID)
}
