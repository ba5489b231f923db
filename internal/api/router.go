package api

import (
	"net/http"

	"zhongdao/config"
	"zhongdao/internal/api/handler"
	"zhongdao/internal/middleware"
	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/internal/scheduler"
	"zhongdao/internal/service"
	"zhongdao/pkg/async"
	"zhongdao/pkg/cache"
	"zhongdao/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 设置API路由，返回引擎和后台组件的停止函数
func SetupRouter(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client, cacheManager *cache.Manager) (*gin.Engine, func()) {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5) // 启动5个工作协程

	// 初始化存储库
	memberRepo := repository.NewMemberRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	benefitRepo := repository.NewRankBenefitRepository(db)

	// 初始化进程内缓存实例并注册到管理器
	memberCache := cache.New(cache.Options[*model.Member]{
		MaxEntries:    cfg.Cache.MaxEntries,
		MaxMemory:     cfg.Cache.MaxMemory,
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	chainCache := cache.New(cache.Options[[]model.ChainMember]{
		MaxEntries:    cfg.Cache.MaxEntries,
		MaxMemory:     cfg.Cache.MaxMemory,
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	cacheManager.Register("member", memberCache)
	cacheManager.Register("upline_chain", chainCache)

	// 初始化服务
	lookup := service.NewMemberLookup(memberRepo, memberCache)
	relationshipService := service.NewTeamRelationshipService(lookup, logger)
	uplineService := service.NewUplineService(lookup, chainCache, logger)
	benefitService := service.NewRankBenefitService(benefitRepo, redisClient, logger)
	orderService := service.NewOrderService(orderRepo, offerRepo, logger)
	commissionService := service.NewCommissionService(
		lookup, memberRepo, commissionRepo, orderRepo, benefitService, logger,
		cfg.Commission.MaxDepth, cfg.Commission.MinAmount)
	validationService := service.NewPurchaseValidationService(
		lookup, offerRepo, relationshipService, uplineService, cacheManager, logger,
		cfg.Commission.UplineMaxHops)

	// 启动佣金结算调度器
	settlementScheduler := scheduler.NewSettlementScheduler(
		commissionService, orderRepo, worker, cacheManager, logger, cfg.Commission.SettleEvery)
	settlementScheduler.Start()

	// 初始化处理器
	purchaseHandler := handler.NewPurchaseHandler(validationService, orderService, logger)
	commissionHandler := handler.NewCommissionHandler(commissionService, logger)
	memberHandler := handler.NewMemberHandler(relationshipService, uplineService, logger, cfg.Commission.UplineMaxHops)
	systemHandler := handler.NewSystemHandler(cacheManager, validationService, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		// 公开接口
		v1.POST("/purchase/validate", purchaseHandler.ValidatePurchase)
		v1.POST("/commission/preview", commissionHandler.PreviewCommission)
		v1.GET("/commission/stats", commissionHandler.GetCommissionStats)
		v1.GET("/team/performance", commissionHandler.GetTeamPerformance)
		v1.GET("/member/upline", memberHandler.GetUplineChain)
		v1.GET("/member/supply-path", memberHandler.GetSupplyPath)
		v1.GET("/member/relationship", memberHandler.CheckRelationship)
		v1.GET("/system/cache", systemHandler.GetCacheStatus)
		v1.GET("/system/validation", systemHandler.GetValidationStats)

		// 需要会员认证的接口
		auth := v1.Group("")
		auth.Use(middleware.MemberAuth(memberRepo))
		{
			auth.POST("/purchase", purchaseHandler.CreatePurchase)
			auth.POST("/settlement", commissionHandler.SettleOrder)
			auth.POST("/system/cache/clear", systemHandler.ClearCache)
		}
	}

	stop := func() {
		settlementScheduler.Stop()
		worker.Stop()
	}
	return router, stop
}
