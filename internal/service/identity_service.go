package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pointsystem/internal/repository"
	"pointsystem/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 身份映射缓存的过期时间，映射本身不可变，过期只是为了控制内存
const identityCacheTTL = 24 * time.Hour

// IdentityService 平台身份解析服务
// 把（平台, 平台用户ID）解析为规范账户ID，首次见到的身份分配新账户
type IdentityService struct {
	redisClient  *redis.Client
	identityRepo *repository.IdentityRepository
}

func NewIdentityService(db *gorm.DB, redisClient *redis.Client) *IdentityService {
	return &IdentityService{
		redisClient:  redisClient,
		identityRepo: repository.NewIdentityRepository(db),
	}
}

func identityCacheKey(platform, platformUserID string) string {
	return fmt.Sprintf("identity:%s:%s", platform, platformUserID)
}

// Resolve 解析账户ID，不存在时分配新账户
func (s *IdentityService) Resolve(ctx context.Context, platform, platformUserID string) (string, error) {
	key := identityCacheKey(platform, platformUserID)
	if cached, err := s.redisClient.Get(ctx, key).Result(); err == nil && cached != "" {
		return cached, nil
	}

	identity, err := s.identityRepo.GetOrCreate(ctx, platform, platformUserID, idgen.GenerateAccountID())
	if err != nil {
		return "", fmt.Errorf("解析账户失败: %w", err)
	}

	// 缓存写失败不影响主流程
	s.redisClient.Set(ctx, key, identity.AccountID, identityCacheTTL)
	return identity.AccountID, nil
}

// Lookup 只查询已存在的映射，用于转账接收方校验
// 未知身份返回 ErrInvalidReceiver，不会分配新账户
func (s *IdentityService) Lookup(ctx context.Context, platform, platformUserID string) (string, error) {
	key := identityCacheKey(platform, platformUserID)
	if cached, err := s.redisClient.Get(ctx, key).Result(); err == nil && cached != "" {
		return cached, nil
	}

	identity, err := s.identityRepo.Get(ctx, platform, platformUserID)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityNotFound) {
			return "", ErrInvalidReceiver
		}
		return "", fmt.Errorf("查询账户失败: %w", err)
	}

	s.redisClient.Set(ctx, key, identity.AccountID, identityCacheTTL)
	return identity.AccountID, nil
}
