package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【为什么需要分布式锁？】
//
// 场景：同一账户的签到请求被重复提交（网络抖动、双击）
//
// 如果没有锁：
//   goroutine1: 读签到记录（今天未签）-> 发奖励 -> 更新记录
//   goroutine2: 读签到记录（今天未签）-> 发奖励 -> 更新记录   奖励发了两次！
//
// 加了按账户维度的锁之后，第二个请求要么等待后看到已签到，要么获取锁失败。
// 事务内的行锁和乐观锁版本号是最后一道防线，redis 锁负责把冲突挡在 DB 之前。
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：使用 Lua 脚本保证"检查+删除"的原子性
//
// ============================================================================

var (
	ErrLockFailed  = errors.New("获取分布式锁失败")
	ErrLockExpired = errors.New("锁已过期")
)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
			// 继续重试
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 【关键点】用 Lua 脚本保证"检查+删除"的原子性；
// 只有 value 匹配（锁还是自己的）才删除，避免删掉超时后别人重新获取的锁
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// ============================================================================
// 便捷函数：按账户维度的业务锁
// ============================================================================
//
// 签到和转账都按账户加锁：不同账户可以并发，同一账户串行。

// NewSignLock 创建签到锁（按账户维度）
func NewSignLock(client *redis.Client, accountID string) *DistributedLock {
	key := fmt.Sprintf("sign:lock:account:%s", accountID)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}

// NewTransferLock 创建转账锁（按转出方账户维度）
func NewTransferLock(client *redis.Client, accountID string) *DistributedLock {
	key := fmt.Sprintf("transfer:lock:account:%s", accountID)
	return NewDistributedLock(client, key, uuid.NewString(), 30*time.Second)
}
