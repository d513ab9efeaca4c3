package handler

import (
	"errors"
	"strconv"

	"pointsystem/internal/config"
	"pointsystem/internal/reward"
	"pointsystem/internal/service"
	"pointsystem/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	cfg             *config.Config
	identityService *service.IdentityService
	ledgerService   *service.LedgerService
	signService     *service.SignService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config, engine *reward.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:             cfg,
		identityService: service.NewIdentityService(db, rdb),
		ledgerService:   service.NewLedgerService(db, rdb, cfg, logger),
		signService:     service.NewSignService(db, rdb, cfg, engine, logger),
	}
}

// ============================================================
// 签到相关接口
// ============================================================

// SignInRequest 签到请求
type SignInRequest struct {
	Platform string `json:"platform" binding:"required"` // 聊天平台标识
	UserID   string `json:"user_id" binding:"required"`  // 平台用户ID
}

// SignIn 执行签到
// POST /api/v1/sign/execute
//
// 【关键点】签到是冷却闸门 + 奖励计算 + 入账的组合操作：
// 1. 每个自然日（本地零点分界）只能签到一次
// 2. 奖励明细、签到记录更新、余额入账必须同时成功或同时失败
// 3. 重复提交由按账户的分布式锁 + 事务内行锁兜底
func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	accountID, err := h.identityService.Resolve(c.Request.Context(), req.Platform, req.UserID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	result, err := h.signService.SignIn(c.Request.Context(), accountID)
	if err != nil {
		var signed *service.AlreadySignedError
		if errors.As(err, &signed) {
			response.ErrorWithData(c, response.CodeAlreadySigned, signed.Error(), gin.H{
				"remaining_seconds": int(signed.Remaining.Seconds()),
			})
			return
		}
		if errors.Is(err, service.ErrConflict) {
			response.BusinessError(c, response.CodeConflict, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// SignDetail 查询最近一次签到明细
// GET /api/v1/sign/detail?platform=xxx&user_id=xxx
func (h *Handler) SignDetail(c *gin.Context) {
	platform := c.Query("platform")
	userID := c.Query("user_id")
	if platform == "" || userID == "" {
		response.ParamError(c, "platform 和 user_id 参数不能为空")
		return
	}

	accountID, err := h.identityService.Lookup(c.Request.Context(), platform, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReceiver) {
			response.BusinessError(c, response.CodeNoSignRecord, service.ErrNoRecord.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	detail, err := h.signService.Detail(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrNoRecord) {
			response.BusinessError(c, response.CodeNoSignRecord, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, detail)
}

// ============================================================
// 账户相关接口
// ============================================================

// GetBalance 查询余额
// GET /api/v1/account/balance?platform=xxx&user_id=xxx
func (h *Handler) GetBalance(c *gin.Context) {
	platform := c.Query("platform")
	userID := c.Query("user_id")
	if platform == "" || userID == "" {
		response.ParamError(c, "platform 和 user_id 参数不能为空")
		return
	}

	accountID, err := h.identityService.Resolve(c.Request.Context(), platform, userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	balance, err := h.ledgerService.Balance(c.Request.Context(), accountID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"account_id": accountID,
		"points":     balance,
	})
}

// ListTransactions 分页查询账户流水
// GET /api/v1/account/transactions?platform=xxx&user_id=xxx&page=1&page_size=20
func (h *Handler) ListTransactions(c *gin.Context) {
	platform := c.Query("platform")
	userID := c.Query("user_id")
	if platform == "" || userID == "" {
		response.ParamError(c, "platform 和 user_id 参数不能为空")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	accountID, err := h.identityService.Resolve(c.Request.Context(), platform, userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	list, total, err := h.ledgerService.Transactions(c.Request.Context(), accountID, page, pageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"account_id": accountID,
		"total":      total,
		"list":       list,
	})
}

// Conservation 能量守恒查询：排除管理账户后的全体余额总量
// GET /api/v1/account/conservation
func (h *Handler) Conservation(c *gin.Context) {
	total, err := h.ledgerService.ConservationSum(c.Request.Context(), h.cfg.Admin.ExcludedAccounts)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"total": total,
	})
}

// ============================================================
// 转账相关接口
// ============================================================

// TransferRequest 转账请求
type TransferRequest struct {
	Platform   string `json:"platform" binding:"required"`
	SenderID   string `json:"sender_id" binding:"required"`   // 转出方平台用户ID
	ReceiverID string `json:"receiver_id" binding:"required"` // 接收方平台用户ID
	Amount     string `json:"amount" binding:"required"`      // 十进制字符串
}

// Transfer 点对点转账
// POST /api/v1/transfer/execute
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		response.ParamError(c, "amount 必须是正的十进制数")
		return
	}

	senderID, err := h.identityService.Resolve(c.Request.Context(), req.Platform, req.SenderID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	// 接收方必须是已知用户，未知身份不分配账户
	receiverID, err := h.identityService.Lookup(c.Request.Context(), req.Platform, req.ReceiverID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReceiver) {
			response.BusinessError(c, response.CodeInvalidReceiver, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	result, err := h.ledgerService.Transfer(c.Request.Context(), &service.TransferRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
	})
	if err != nil {
		if errors.Is(err, service.ErrInsufficientFunds) {
			response.BusinessError(c, response.CodeInsufficientFunds, err.Error())
			return
		}
		if errors.Is(err, service.ErrConflict) {
			response.BusinessError(c, response.CodeConflict, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// TransferDetail 按转账号查询配对流水
// GET /api/v1/transfer/detail?transfer_no=xxx
func (h *Handler) TransferDetail(c *gin.Context) {
	transferNo := c.Query("transfer_no")
	if transferNo == "" {
		response.ParamError(c, "transfer_no 参数不能为空")
		return
	}

	list, err := h.ledgerService.TransferDetail(c.Request.Context(), transferNo)
	if err != nil {
		if errors.Is(err, service.ErrNoRecord) {
			response.Error(c, response.CodeNotFound, "转账记录不存在")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, list)
}

// ============================================================
// 管理接口（共享令牌鉴权，不做余额校验）
// ============================================================

// AdminAdjustRequest 管理员增减请求
type AdminAdjustRequest struct {
	Platform string `json:"platform" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	Delta    string `json:"delta" binding:"required"` // 可为负
}

// AdminAdjust 管理员增减余额
// POST /api/v1/admin/adjust
func (h *Handler) AdminAdjust(c *gin.Context) {
	var req AdminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	delta, err := decimal.NewFromString(req.Delta)
	if err != nil {
		response.ParamError(c, "delta 必须是十进制数")
		return
	}

	accountID, err := h.identityService.Resolve(c.Request.Context(), req.Platform, req.UserID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	after, err := h.ledgerService.Adjust(c.Request.Context(), accountID, delta)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"account_id": accountID,
		"points":     after,
	})
}

// AdminSetRequest 管理员覆盖请求
type AdminSetRequest struct {
	Platform string `json:"platform" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// AdminSet 管理员无条件覆盖余额
// POST /api/v1/admin/set
func (h *Handler) AdminSet(c *gin.Context) {
	var req AdminSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ParamError(c, "amount 必须是十进制数")
		return
	}

	accountID, err := h.identityService.Resolve(c.Request.Context(), req.Platform, req.UserID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	if err := h.ledgerService.Set(c.Request.Context(), accountID, amount); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"account_id": accountID,
		"points":     amount,
	})
}
