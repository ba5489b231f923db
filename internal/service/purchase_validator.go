package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/internal/types"
	"zhongdao/pkg/cache"
	"zhongdao/pkg/logger"
)

// PurchaseValidationService 购买校验服务。
// 按固定顺序执行校验流水线，任一阶段失败立即返回对应原因。
type PurchaseValidationService struct {
	lookup          *MemberLookup
	offerRepo       repository.OfferRepository
	relationshipSvc *TeamRelationshipService
	uplineSvc       *UplineService
	cacheManager    *cache.Manager
	logger          *logger.Logger
	uplineMaxHops   int

	// 滚动统计
	mu               sync.Mutex
	totalValidations uint64
	rejected         uint64
	totalLatency     time.Duration
}

// NewPurchaseValidationService 创建购买校验服务
func NewPurchaseValidationService(
	lookup *MemberLookup,
	offerRepo repository.OfferRepository,
	relationshipSvc *TeamRelationshipService,
	uplineSvc *UplineService,
	cacheManager *cache.Manager,
	logger *logger.Logger,
	uplineMaxHops int,
) *PurchaseValidationService {
	return &PurchaseValidationService{
		lookup:          lookup,
		offerRepo:       offerRepo,
		relationshipSvc: relationshipSvc,
		uplineSvc:       uplineSvc,
		cacheManager:    cacheManager,
		logger:          logger,
		uplineMaxHops:   uplineMaxHops,
	}
}

// validationContext 流水线各阶段间传递的状态
type validationContext struct {
	req    types.PurchaseRequest
	buyer  *model.Member
	seller *model.Member
	offer  *model.Offer
	meta   *model.ValidationMetadata
}

// validationStage 单个校验阶段，返回非空字符串表示拒绝原因
type validationStage struct {
	name string
	run  func(ctx context.Context, vc *validationContext) (string, error)
}

// ValidatePurchase 执行购买校验流水线。本方法不向外抛出任何错误：
// 存储层错误和未处理异常统一转换为系统错误拒绝结果。
func (s *PurchaseValidationService) ValidatePurchase(ctx context.Context, req types.PurchaseRequest) (result *model.ValidationResult) {
	start := time.Now()
	meta := &model.ValidationMetadata{TraceID: uuid.NewString()}
	vc := &validationContext{req: req, meta: meta}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("购买校验发生未处理异常",
				"panic", fmt.Sprintf("%v", r),
				"buyer_id", req.BuyerID, "seller_id", req.SellerID,
				"offer_id", req.OfferID, "quantity", req.Quantity)
			result = s.finish(start, meta, constants.ErrValidationSystem)
		}
	}()

	// 阶段必须顺序执行：后面的阶段依赖前面阶段加载的数据
	for _, stage := range s.stages() {
		reason, err := stage.run(ctx, vc)
		if err != nil {
			s.logger.Error("购买校验阶段失败",
				"stage", stage.name, "error", err,
				"buyer_id", req.BuyerID, "seller_id", req.SellerID,
				"offer_id", req.OfferID, "quantity", req.Quantity)
			return s.finish(start, meta, constants.ErrValidationSystem)
		}
		if reason != "" {
			return s.finish(start, meta, reason)
		}
	}
	return s.finish(start, meta, "")
}

// stages 返回按顺序排列的校验阶段
func (s *PurchaseValidationService) stages() []validationStage {
	return []validationStage{
		{name: "participants", run: s.stageParticipants},
		{name: "status", run: s.stageStatus},
		{name: "relationship", run: s.stageRelationship},
		{name: "rank_ordering", run: s.stageRankOrdering},
		{name: "offer_exists", run: s.stageOfferExists},
		{name: "offer_active", run: s.stageOfferActive},
		{name: "stock", run: s.stageStock},
		{name: "variant", run: s.stageVariant},
		{name: "restriction", run: s.stageRestriction},
	}
}

// stageParticipants 买卖双方必须存在
func (s *PurchaseValidationService) stageParticipants(ctx context.Context, vc *validationContext) (string, error) {
	buyer, err := s.lookup.Get(ctx, vc.req.BuyerID)
	if err != nil {
		return "", err
	}
	seller, err := s.lookup.Get(ctx, vc.req.SellerID)
	if err != nil {
		return "", err
	}
	if buyer == nil || seller == nil {
		return constants.ErrBuyerOrSellerNotFound, nil
	}
	vc.buyer, vc.seller = buyer, seller
	vc.meta.BuyerRank = buyer.Rank
	vc.meta.SellerRank = seller.Rank
	return "", nil
}

// stageStatus 买卖双方必须处于正常状态
func (s *PurchaseValidationService) stageStatus(ctx context.Context, vc *validationContext) (string, error) {
	if !vc.buyer.IsActive() || !vc.seller.IsActive() {
		return constants.ErrAccountStatusAbnormal, nil
	}
	return "", nil
}

// stageRelationship 卖家必须是买家的上级
func (s *PurchaseValidationService) stageRelationship(ctx context.Context, vc *validationContext) (string, error) {
	rel, err := s.relationshipSvc.ValidateTeamRelationship(ctx, vc.seller.ID, vc.buyer.ID)
	if err != nil {
		return "", err
	}
	vc.meta.Relationship = rel
	if !rel.IsValid {
		return constants.ErrNoTeamRelationship, nil
	}
	return "", nil
}

// stageRankOrdering 买家等级必须低于卖家等级；
// 同级或更高时尝试向卖家上级上浮寻找等级更高的有效卖家
func (s *PurchaseValidationService) stageRankOrdering(ctx context.Context, vc *validationContext) (string, error) {
	lc := &model.LevelComparison{
		BuyerRank:           vc.buyer.Rank,
		SellerRank:          vc.seller.Rank,
		EffectiveSellerRank: vc.seller.Rank,
	}
	vc.meta.LevelComparison = lc

	if vc.buyer.Rank < vc.seller.Rank {
		return "", nil
	}

	found, err := s.uplineSvc.FindHigherLevelUpline(ctx, vc.seller.ID, vc.buyer.Rank, s.uplineMaxHops)
	if err != nil {
		return "", err
	}
	if !found.Found {
		return constants.ErrRankOrderViolation, nil
	}
	lc.Escalated = true
	lc.EscalatedVia = found.Member.ID
	lc.EffectiveSellerRank = found.Member.Rank
	return "", nil
}

// stageOfferExists 商品必须存在
func (s *PurchaseValidationService) stageOfferExists(ctx context.Context, vc *validationContext) (string, error) {
	offer, err := s.offerRepo.GetByID(ctx, vc.req.OfferID)
	if err != nil {
		return "", err
	}
	if offer == nil {
		return constants.ErrOfferNotFound, nil
	}
	vc.offer = offer
	return "", nil
}

// stageOfferActive 商品必须上架中
func (s *PurchaseValidationService) stageOfferActive(ctx context.Context, vc *validationContext) (string, error) {
	if vc.offer.Status != model.OfferStatusActive {
		return constants.ErrOfferDelisted, nil
	}
	return "", nil
}

// stageStock 规格库存合计必须满足购买数量
func (s *PurchaseValidationService) stageStock(ctx context.Context, vc *validationContext) (string, error) {
	have := vc.offer.AvailableStock()
	if have < vc.req.Quantity {
		return fmt.Sprintf(constants.ErrInsufficientStockFmt, have, vc.req.Quantity), nil
	}
	return "", nil
}

// stageVariant 至少存在一个可购买的规格
func (s *PurchaseValidationService) stageVariant(ctx context.Context, vc *validationContext) (string, error) {
	if !vc.offer.HasActiveVariant() {
		return constants.ErrNoActiveVariant, nil
	}
	return "", nil
}

// stageRestriction 按商品限购配置校验数量和买家最低等级
func (s *PurchaseValidationService) stageRestriction(ctx context.Context, vc *validationContext) (string, error) {
	restriction, err := s.offerRepo.GetPurchaseRestriction(ctx, vc.offer.ID)
	if err != nil {
		return "", err
	}
	if restriction == nil {
		return "", nil
	}
	if restriction.MaxQuantity > 0 && vc.req.Quantity > restriction.MaxQuantity {
		return constants.ErrQuantityExceedsLimit, nil
	}
	if vc.buyer.Rank < restriction.MinRank {
		return constants.ErrRankBelowMinimum, nil
	}
	return "", nil
}

// finish 更新滚动统计并组装校验结果
func (s *PurchaseValidationService) finish(start time.Time, meta *model.ValidationMetadata, reason string) *model.ValidationResult {
	latency := time.Since(start)
	s.mu.Lock()
	s.totalValidations++
	if reason != "" {
		s.rejected++
	}
	s.totalLatency += latency
	s.mu.Unlock()

	meta.Performance = s.Stats()

	result := &model.ValidationResult{
		IsValid:     reason == "",
		CanPurchase: reason == "",
		Reasons:     []string{},
		Metadata:    *meta,
	}
	if reason != "" {
		result.Reasons = []string{reason}
	}
	return result
}

// Stats 返回当前统计快照
func (s *PurchaseValidationService) Stats() model.PerformanceSnapshot {
	s.mu.Lock()
	snap := model.PerformanceSnapshot{
		TotalValidations: s.totalValidations,
		Rejected:         s.rejected,
	}
	if s.totalValidations > 0 {
		snap.AvgLatencyMs = float64(s.totalLatency.Microseconds()) / 1000.0 / float64(s.totalValidations)
	}
	s.mu.Unlock()

	if s.cacheManager != nil {
		for _, cs := range s.cacheManager.StatsAll() {
			snap.CacheHits += cs.Hits
			snap.CacheMisses += cs.Misses
		}
	}
	return snap
}
