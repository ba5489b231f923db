package scheduler

import (
	"context"
	"time"

	"zhongdao/internal/constants"
	"zhongdao/internal/repository"
	"zhongdao/internal/service"
	"zhongdao/pkg/async"
	"zhongdao/pkg/cache"
	"zhongdao/pkg/logger"
)

// settlementBatchSize 每轮最多捞取的待结算订单数
const settlementBatchSize = 100

// SettlementScheduler 佣金结算调度器。
// 定期捞取已支付未结算的订单，交给异步工作器逐单结算。
type SettlementScheduler struct {
	commissionService *service.CommissionService
	orderRepo         repository.OrderRepository
	worker            *async.Worker
	cacheManager      *cache.Manager
	logger            *logger.Logger
	interval          time.Duration
	quit              chan struct{}
}

// NewSettlementScheduler 创建佣金结算调度器实例
func NewSettlementScheduler(
	commissionService *service.CommissionService,
	orderRepo repository.OrderRepository,
	worker *async.Worker,
	cacheManager *cache.Manager,
	logger *logger.Logger,
	interval time.Duration,
) *SettlementScheduler {
	return &SettlementScheduler{
		commissionService: commissionService,
		orderRepo:         orderRepo,
		worker:            worker,
		cacheManager:      cacheManager,
		logger:            logger,
		interval:          interval,
		quit:              make(chan struct{}),
	}
}

// Start 启动佣金结算调度器
func (s *SettlementScheduler) Start() {
	// 启动时立即执行一次结算
	go s.settlePendingOrders()

	go s.run()

	s.logger.Info("佣金结算调度器启动", "interval", s.interval)
}

// Stop 停止佣金结算调度器
func (s *SettlementScheduler) Stop() {
	close(s.quit)
	s.logger.Info("佣金结算调度器停止")
}

// run 定时循环
func (s *SettlementScheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.settlePendingOrders()
			s.checkCacheHealth()
		case <-s.quit:
			return
		}
	}
}

// settlePendingOrders 捞取已支付未结算的订单并逐单提交结算任务。
// 单个订单结算失败不影响其他订单，下一轮会重新捞起。
func (s *SettlementScheduler) settlePendingOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	orders, err := s.orderRepo.ListPaidUnsettled(ctx, settlementBatchSize)
	if err != nil {
		s.logger.Error("获取待结算订单失败", "error", err)
		return
	}
	if len(orders) == 0 {
		return
	}
	s.logger.Info("开始结算待结算订单", "count", len(orders))

	for _, order := range orders {
		orderNo := order.OrderNo
		s.worker.Submit("settle_"+orderNo, func(ctx context.Context) error {
			_, err := s.commissionService.SettleOrder(ctx, orderNo)
			// 已被其他途径结算过的订单视为成功
			if err != nil && err.Error() == constants.ErrOrderSettled {
				return nil
			}
			return err
		})
	}
}

// checkCacheHealth 巡检缓存健康状态，降级时输出告警日志
func (s *SettlementScheduler) checkCacheHealth() {
	for name, health := range s.cacheManager.HealthAll() {
		if health.Degraded {
			s.logger.Warn("缓存实例处于降级状态",
				"cache", name,
				"reason", health.Reason,
				"hit_rate", health.Stats.HitRate,
				"memory_used", health.Stats.MemoryUsed)
		}
	}
}
