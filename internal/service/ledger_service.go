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
	"pointsystem/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerService 点数台账服务
// 余额查询、管理员增减/覆盖、能量守恒汇总、带手续费的点对点转账
type LedgerService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	logger          *zap.Logger
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

func NewLedgerService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		logger:          logger,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// Balance 查询余额，账户未创建时返回 0
func (s *LedgerService) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return account.Points, nil
}

// Adjust 管理员增减余额，delta 可为负，不做下限校验
func (s *LedgerService) Adjust(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.accountRepo.GetOrCreateForUpdate(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("获取账户失败: %w", err)
		}

		if err := s.accountRepo.Adjust(ctx, tx, accountID, delta); err != nil {
			return fmt.Errorf("调整余额失败: %w", err)
		}

		after = account.Points.Add(delta)
		trans := &model.AccountTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			AccountID:     accountID,
			Amount:        delta,
			Type:          model.TransactionTypeAdjust,
			BalanceBefore: account.Points,
			BalanceAfter:  after,
			Remark:        "管理员调整",
		}
		if err := s.transactionRepo.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return after, nil
}

// Set 管理员无条件覆盖余额
func (s *LedgerService) Set(ctx context.Context, accountID string, amount decimal.Decimal) error {
	return s.accountRepo.SetPoints(ctx, accountID, amount)
}

// ConservationSum 全体账户（排除管理账户）的余额总量
func (s *LedgerService) ConservationSum(ctx context.Context, excluded []string) (decimal.Decimal, error) {
	return s.accountRepo.Sum(ctx, excluded)
}

// Transactions 分页查询账户流水，按时间倒序
func (s *LedgerService) Transactions(ctx context.Context, accountID string, page, pageSize int) ([]*model.AccountTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.transactionRepo.ListByAccountID(ctx, accountID, page, pageSize)
}

// TransferDetail 按转账号查询两条配对流水（黑洞转账只有转出一条）
func (s *LedgerService) TransferDetail(ctx context.Context, transferNo string) ([]*model.AccountTransaction, error) {
	list, err := s.transactionRepo.ListByTransferNo(ctx, transferNo)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoRecord
	}
	return list, nil
}

type TransferRequest struct {
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
}

type TransferResult struct {
	TransferNo       string          `json:"transfer_no"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	Net              decimal.Decimal `json:"net"`
	Burned           bool            `json:"burned"` // 转入黑洞，到账部分一并销毁
	NewSenderBalance decimal.Decimal `json:"new_sender_balance"`
}

// TransferFee 手续费计算
// fee = max(最低手续费, round(费率*金额, 最低手续费的小数位数))
func TransferFee(amount, feeRatio, minFee decimal.Decimal) decimal.Decimal {
	places := -minFee.Exponent()
	if places < 0 {
		places = 0
	}
	fee := feeRatio.Mul(amount).Round(places)
	if fee.LessThan(minFee) {
		return minFee
	}
	return fee
}

// Transfer 点对点转账
//
// 【关键点】转账必须保证：
// 1. 前置校验和两次余额变动在同一个事务内，外部观察不到中间状态
// 2. 手续费销毁（不入任何账户）—— 通缩水池
// 3. 同账户并发转账串行化：按账户ID顺序加行锁，避免死锁
//
// 【历史行为】原始系统的前置校验是 余额 > 最低手续费，而不是 余额 >= 转账额，
// 余额可以被转成负数；strict_check 配置项开启后改用更强的校验
func (s *LedgerService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.New("转账金额必须大于0")
	}

	transferLock := lock.NewTransferLock(s.redisClient, req.SenderID)
	if err := transferLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	defer transferLock.Unlock(ctx)

	feeRatio := s.cfg.Transfer.FeeRatioDecimal()
	minFee := s.cfg.Transfer.MinFeeDecimal()
	transferNo := idgen.GenerateTransferNo()
	burn := req.ReceiverID == s.cfg.Transfer.SinkAccount

	result := &TransferResult{
		TransferNo: transferNo,
		Amount:     req.Amount,
		Burned:     burn,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sender, receiver, err := s.lockPair(ctx, tx, req.SenderID, req.ReceiverID, burn)
		if err != nil {
			return err
		}

		// 前置校验：历史口径只要求余额高于最低手续费
		if !sender.Points.GreaterThan(minFee) {
			return ErrInsufficientFunds
		}
		if s.cfg.Transfer.StrictCheck && sender.Points.LessThan(req.Amount) {
			return ErrInsufficientFunds
		}

		result.Fee = TransferFee(req.Amount, feeRatio, minFee)
		result.Net = req.Amount.Sub(result.Fee)

		if err := s.accountRepo.Adjust(ctx, tx, req.SenderID, req.Amount.Neg()); err != nil {
			return fmt.Errorf("扣减转出方失败: %w", err)
		}
		result.NewSenderBalance = sender.Points.Sub(req.Amount)

		outType := model.TransactionTypeTransferOut
		if burn {
			outType = model.TransactionTypeBurn
		}
		outTrans := &model.AccountTransaction{
			TransactionNo: idgen.GenerateTransactionNo(),
			AccountID:     req.SenderID,
			TransferNo:    transferNo,
			Amount:        req.Amount.Neg(),
			Type:          outType,
			BalanceBefore: sender.Points,
			BalanceAfter:  result.NewSenderBalance,
			Remark:        fmt.Sprintf("转账至 %s，手续费 %s", req.ReceiverID, result.Fee.String()),
		}
		if err := s.transactionRepo.Create(ctx, tx, outTrans); err != nil {
			return fmt.Errorf("记录转出流水失败: %w", err)
		}

		// 黑洞转账：到账部分与手续费一并销毁，不做任何入账
		if !burn {
			if err := s.accountRepo.Adjust(ctx, tx, req.ReceiverID, result.Net); err != nil {
				return fmt.Errorf("转入接收方失败: %w", err)
			}

			inTrans := &model.AccountTransaction{
				TransactionNo: idgen.GenerateTransactionNo(),
				AccountID:     req.ReceiverID,
				TransferNo:    transferNo,
				Amount:        result.Net,
				Type:          model.TransactionTypeTransferIn,
				BalanceBefore: receiver.Points,
				BalanceAfter:  receiver.Points.Add(result.Net),
				Remark:        fmt.Sprintf("来自 %s 的转账", req.SenderID),
			}
			if err := s.transactionRepo.Create(ctx, tx, inTrans); err != nil {
				return fmt.Errorf("记录到账流水失败: %w", err)
			}
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"transfer_no": transferNo,
			"sender":      req.SenderID,
			"receiver":    req.ReceiverID,
			"amount":      req.Amount.String(),
			"fee":         result.Fee.String(),
			"net":         result.Net.String(),
			"burned":      burn,
			"occurred_at": time.Now().Format(time.RFC3339),
		})
		outboxMsg := &model.OutboxMessage{
			MessageKey: transferNo,
			Topic:      s.cfg.Kafka.Topic.PointEvent,
			Payload:    string(payload),
			Status:     model.OutboxStatusPending,
		}
		if err := s.outboxRepo.Create(ctx, tx, outboxMsg); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("转账成功",
		zap.String("transfer_no", transferNo),
		zap.String("sender", req.SenderID),
		zap.String("receiver", req.ReceiverID),
		zap.String("amount", req.Amount.String()),
		zap.String("fee", result.Fee.String()),
		zap.Bool("burned", burn),
	)
	return result, nil
}

// lockPair 按账户ID顺序对双方加行锁，黑洞转账只锁转出方
func (s *LedgerService) lockPair(ctx context.Context, tx *gorm.DB, senderID, receiverID string, burn bool) (*model.Account, *model.Account, error) {
	if burn {
		sender, err := s.accountRepo.GetOrCreateForUpdate(ctx, tx, senderID)
		return sender, nil, err
	}

	first, second := senderID, receiverID
	if second < first {
		first, second = second, first
	}
	a, err := s.accountRepo.GetOrCreateForUpdate(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.accountRepo.GetOrCreateForUpdate(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}
	if first == senderID {
		return a, b, nil
	}
	return b, a, nil
}
