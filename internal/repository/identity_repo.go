package repository

import (
	"context"
	"errors"

	"pointsystem/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrIdentityNotFound = errors.New("身份映射不存在")

type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Get(ctx context.Context, platform, platformUserID string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).
		Where("platform = ? AND platform_user_id = ?", platform, platformUserID).
		First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// GetOrCreate 首次见到的平台身份分配新账户ID
// 并发首次解析同一身份时靠唯一索引兜底，冲突后重读已存在的映射
func (r *IdentityRepository) GetOrCreate(ctx context.Context, platform, platformUserID, newAccountID string) (*model.Identity, error) {
	identity, err := r.Get(ctx, platform, platformUserID)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}

	newIdentity := &model.Identity{
		Platform:       platform,
		PlatformUserID: platformUserID,
		AccountID:      newAccountID,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "platform_user_id"}},
			DoNothing: true,
		}).
		Create(newIdentity).Error
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, platform, platformUserID)
}
