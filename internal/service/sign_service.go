package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pointsystem/internal/config"
	"pointsystem/internal/infrastructure/lock"
	"pointsystem/internal/model"
	"pointsystem/internal/repository"
	"pointsystem/internal/reward"
	"pointsystem/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 乐观锁冲突的内部重试次数，超过后以 ErrConflict 返回
const signMaxRetries = 3

// SignService 签到编排服务
// 组合奖励引擎、签到记录和台账：冷却闸门 -> 奖励计算 -> 记录持久化 -> 入账
type SignService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	engine          *reward.Engine
	logger          *zap.Logger
	signRepo        *repository.SignRepository
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewSignService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, engine *reward.Engine, logger *zap.Logger) *SignService {
	return &SignService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		engine:          engine,
		logger:          logger,
		signRepo:        repository.NewSignRepository(db),
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

type SignInResult struct {
	Base           int             `json:"base"`
	Bonus          int             `json:"bonus"`
	BonusType      string          `json:"bonus_type"`
	EventPoints    int             `json:"event_points"`
	EventText      string          `json:"event_text,omitempty"`
	Total          int             `json:"total"`
	ContinuousDays int             `json:"continuous_days"`
	NewBalance     decimal.Decimal `json:"new_balance"`
}

type SignDetail struct {
	SignedAt       time.Time `json:"signed_at"`
	Base           int       `json:"base"`
	Bonus          int       `json:"bonus"`
	BonusType      string    `json:"bonus_type"`
	EventPoints    int       `json:"event_points"`
	EventText      string    `json:"event_text,omitempty"`
	Total          int       `json:"total"`
	ContinuousDays int       `json:"continuous_days"`
}

// SignIn 执行一次签到
//
// 【关键点】同一账户的并发签到（双击重复提交）必须恰好成功一次：
// 1. 按账户维度的 redis 锁挡掉绝大多数并发
// 2. 事务内行锁读签到记录，冷却检查和更新基于同一次读
// 3. 乐观锁版本校验兜底，冲突时小范围重试
func (s *SignService) SignIn(ctx context.Context, accountID string) (*SignInResult, error) {
	signLock := lock.NewSignLock(s.redisClient, accountID)
	if err := signLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	defer signLock.Unlock(ctx)

	var lastErr error
	for attempt := 0; attempt < signMaxRetries; attempt++ {
		result, err := s.signInOnce(ctx, accountID, time.Now())
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

// signInOnce 单次签到事务，乐观锁冲突时由调用方重试
func (s *SignService) signInOnce(ctx context.Context, accountID string, now time.Time) (*SignInResult, error) {
	var result *SignInResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.signRepo.GetOrCreateForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("获取签到记录失败: %w", err)
		}

		// 冷却检查：本地零点之后已签到过则拒绝
		if record.LastSignAt != nil && !record.LastSignAt.Before(dayStart(now)) {
			return &AlreadySignedError{Remaining: untilNextMidnight(now)}
		}

		outcome := s.engine.Compute(reward.StreakState{
			LastSignAt:     record.LastSignAt,
			LastBonusAt:    record.LastBonusAt,
			ContinuousDays: record.ContinuousDays,
			StreakStage:    record.StreakStage,
		}, now)

		record.LastSignAt = outcome.State.LastSignAt
		record.LastBonusAt = outcome.State.LastBonusAt
		record.ContinuousDays = outcome.State.ContinuousDays
		record.StreakStage = outcome.State.StreakStage
		record.LastBasePoints = outcome.Base
		record.LastBonusPoints = outcome.Bonus
		record.LastBonusType = int(outcome.BonusType)
		record.LastEventPoints = outcome.EventPoints
		record.LastEventText = outcome.EventText

		if err := s.signRepo.Save(ctx, tx, record); err != nil {
			return err
		}

		account, err := s.accountRepo.GetOrCreateForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("获取账户失败: %w", err)
		}

		total := decimal.NewFromInt(int64(outcome.Total()))
		if err := s.accountRepo.Adjust(ctx, tx, accountID, total); err != nil {
			return fmt.Errorf("签到入账失败: %w", err)
		}

		trans := &model.AccountTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			AccountID:     accountID,
			Amount:        total,
			Type:          model.TransactionTypeSign,
			BalanceBefore: account.Points,
			BalanceAfter:  account.Points.Add(total),
			Remark: fmt.Sprintf("签到 基础%d 连签%d 事件%d",
				outcome.Base, outcome.Bonus, outcome.EventPoints),
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"account_id":      accountID,
			"base":            outcome.Base,
			"bonus":           outcome.Bonus,
			"bonus_type":      outcome.BonusType.String(),
			"event_points":    outcome.EventPoints,
			"total":           outcome.Total(),
			"continuous_days": outcome.State.ContinuousDays,
			"signed_at":       now.Format(time.RFC3339),
		})
		outboxMsg := &model.OutboxMessage{
			MessageKey: accountID,
			Topic:      s.cfg.Kafka.Topic.PointEvent,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		}
		if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}

		result = &SignInResult{
			Base:           outcome.Base,
			Bonus:          outcome.Bonus,
			BonusType:      outcome.BonusType.String(),
			EventPoints:    outcome.EventPoints,
			EventText:      outcome.EventText,
			Total:          outcome.Total(),
			ContinuousDays: outcome.State.ContinuousDays,
			NewBalance:     account.Points.Add(total),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("签到成功",
		zap.String("account_id", accountID),
		zap.Int("base", result.Base),
		zap.Int("bonus", result.Bonus),
		zap.String("bonus_type", result.BonusType),
		zap.Int("event", result.EventPoints),
		zap.Int("continuous_days", result.ContinuousDays),
	)
	return result, nil
}

// Detail 查询最近一次签到明细，只读，不触发冷却
func (s *SignService) Detail(ctx context.Context, accountID string) (*SignDetail, error) {
	record, err := s.signRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrSignRecordNotFound) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	if record.LastSignAt == nil {
		return nil, ErrNoRecord
	}

	return &SignDetail{
		SignedAt:       *record.LastSignAt,
		Base:           record.LastBasePoints,
		Bonus:          record.LastBonusPoints,
		BonusType:      reward.BonusType(record.LastBonusType).String(),
		EventPoints:    record.LastEventPoints,
		EventText:      record.LastEventText,
		Total:          record.LastBasePoints + record.LastBonusPoints + record.LastEventPoints,
		ContinuousDays: record.ContinuousDays,
	}, nil
}

// dayStart 当天本地零点
func dayStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// untilNextMidnight 距下一个本地零点的剩余时间
func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
