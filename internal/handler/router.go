package handler

import (
	"pointsystem/internal/config"
	"pointsystem/internal/reward"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config, engine *reward.Engine, logger *zap.Logger) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg, engine, logger)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 签到相关
		sign := api.Group("/sign")
		{
			sign.POST("/execute", h.SignIn)
			sign.GET("/detail", h.SignDetail)
		}

		// 账户相关
		account := api.Group("/account")
		{
			account.GET("/balance", h.GetBalance)
			account.GET("/transactions", h.ListTransactions)
			account.GET("/conservation", h.Conservation)
		}

		// 转账相关
		transfer := api.Group("/transfer")
		{
			transfer.POST("/execute", h.Transfer)
			transfer.GET("/detail", h.TransferDetail)
		}

		// 管理接口
		admin := api.Group("/admin")
		admin.Use(AdminAuthMiddleware(cfg.Admin.Token))
		{
			admin.POST("/adjust", h.AdminAdjust)
			admin.POST("/set", h.AdminSet)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
