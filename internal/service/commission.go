package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/internal/types"
	"zhongdao/pkg/logger"
)

// commissionDecay 每向上一层佣金比例的衰减系数
const commissionDecay = 0.8

// RankBenefitProvider 分佣服务需要的等级权益查询能力
type RankBenefitProvider interface {
	GetByRank(ctx context.Context, rank model.Rank) (*repository.RankBenefit, error)
}

// CommissionService 分佣服务。
// 从卖家沿推荐链向上逐层递减计算佣金并落库。
type CommissionService struct {
	lookup         *MemberLookup
	memberRepo     repository.MemberRepository
	commissionRepo repository.TransactionalCommissionRepository
	orderRepo      repository.TransactionalOrderRepository
	benefits       RankBenefitProvider
	logger         *logger.Logger
	maxDepth       int
	minAmount      float64
}

// NewCommissionService 创建分佣服务
func NewCommissionService(
	lookup *MemberLookup,
	memberRepo repository.MemberRepository,
	commissionRepo repository.TransactionalCommissionRepository,
	orderRepo repository.TransactionalOrderRepository,
	benefits RankBenefitProvider,
	logger *logger.Logger,
	maxDepth int,
	minAmount float64,
) *CommissionService {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &CommissionService{
		lookup:         lookup,
		memberRepo:     memberRepo,
		commissionRepo: commissionRepo,
		orderRepo:      orderRepo,
		benefits:       benefits,
		logger:         logger,
		maxDepth:       maxDepth,
		minAmount:      minAmount,
	}
}

// round2 金额保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetCommissionPath 从memberID开始沿推荐链向上构建分佣链路，
// 每一跳优先使用推荐人，没有推荐人时退回结构父节点。
// 遇到第一个非正常状态的会员即停止且不包含该会员。
// 这与GetUplineChain跳过非正常会员继续向上的语义是刻意不同的。
func (s *CommissionService) GetCommissionPath(ctx context.Context, memberID int64, maxDepth int) ([]*model.Member, error) {
	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}
	start, err := s.lookup.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return []*model.Member{}, nil
	}

	path := []*model.Member{}
	visited := map[int64]bool{}
	current := start

	for len(path) < maxDepth {
		if current == nil || !current.IsActive() {
			break
		}
		if visited[current.ID] {
			s.logger.Warn("分佣链路检测到环，终止遍历", "member_id", memberID, "cycle_at", current.ID)
			break
		}
		visited[current.ID] = true
		path = append(path, current)

		// 推荐人优先于结构父节点
		nextID := current.ReferrerID
		if nextID == nil {
			nextID = current.ParentID
		}
		if nextID == nil {
			break
		}
		next, err := s.lookup.Get(ctx, *nextID)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return path, nil
}

// CalculateAndDistributeCommission 计算并落库一个订单的佣金记录。
// 第d层金额为 round2(totalAmount × baseRate × 0.8^(d-1))，
// 衰减单调递减，首个低于最低入账金额的层级之后全部跳过。
// 提供tx时所有记录共享调用方事务，写入失败返回错误由调用方回滚；
// 不提供tx时每条记录独立写入，单条失败只记日志继续（允许部分成功）。
// 查询类错误一律软失败：记日志并返回空列表。
func (s *CommissionService) CalculateAndDistributeCommission(ctx context.Context, params types.CommissionParams, tx *sqlx.Tx) ([]*model.CommissionRecord, error) {
	maxDepth := params.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}

	path, err := s.GetCommissionPath(ctx, params.SellerID, maxDepth)
	if err != nil {
		s.logger.Error("解析分佣链路失败",
			"order_no", params.OrderNo, "seller_id", params.SellerID, "error", err)
		return []*model.CommissionRecord{}, nil
	}
	if len(path) == 0 {
		return []*model.CommissionRecord{}, nil
	}

	benefit, err := s.benefits.GetByRank(ctx, params.SellerLevel)
	if err != nil {
		s.logger.Error("获取分佣比例失败",
			"order_no", params.OrderNo, "seller_level", int(params.SellerLevel), "error", err)
		return []*model.CommissionRecord{}, nil
	}
	baseRate := benefit.CommissionRate

	repo := repository.CommissionRepository(s.commissionRepo)
	if tx != nil {
		repo = s.commissionRepo.WithTx(tx)
	}

	metadata := model.CommissionMetadata{
		PathDepth: len(path),
		MaxDepth:  maxDepth,
		BaseRate:  baseRate,
		Method:    model.CommissionMethodDegressive,
	}.Encode()

	records := []*model.CommissionRecord{}
	for i, member := range path {
		depth := i + 1
		rate := baseRate * math.Pow(commissionDecay, float64(depth-1))
		raw := params.TotalAmount * rate
		if raw < s.minAmount {
			break
		}

		record := &model.CommissionRecord{
			ID:             uuid.NewString(),
			OrderNo:        params.OrderNo,
			BeneficiaryID:  member.ID,
			SourceMemberID: params.SellerID,
			SourceType:     model.CommissionSourcePurchase,
			Amount:         round2(raw),
			Rate:           rate,
			Depth:          depth,
			Status:         model.CommissionStatusPending,
			Metadata:       metadata,
		}

		if err := repo.Create(ctx, record); err != nil {
			s.logger.Error("写入佣金记录失败",
				"order_no", params.OrderNo, "beneficiary_id", member.ID,
				"depth", depth, "amount", record.Amount, "error", err)
			if tx != nil {
				return nil, err
			}
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// PreviewCommission 预览分佣结果，不落库；出错时返回零值结果
func (s *CommissionService) PreviewCommission(ctx context.Context, params types.CommissionParams) *types.CommissionPreview {
	preview := &types.CommissionPreview{CommissionBreakdown: []types.CommissionBreakdownItem{}}

	maxDepth := params.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}

	path, err := s.GetCommissionPath(ctx, params.SellerID, maxDepth)
	if err != nil {
		s.logger.Error("分佣预览解析链路失败", "seller_id", params.SellerID, "error", err)
		return preview
	}
	benefit, err := s.benefits.GetByRank(ctx, params.SellerLevel)
	if err != nil {
		s.logger.Error("分佣预览获取比例失败", "seller_level", int(params.SellerLevel), "error", err)
		return preview
	}

	for i, member := range path {
		depth := i + 1
		rate := benefit.CommissionRate * math.Pow(commissionDecay, float64(depth-1))
		raw := params.TotalAmount * rate
		if raw < s.minAmount {
			break
		}
		amount := round2(raw)
		preview.TotalCommission = round2(preview.TotalCommission + amount)
		preview.CommissionBreakdown = append(preview.CommissionBreakdown, types.CommissionBreakdownItem{
			UserID:    member.ID,
			Level:     depth,
			Amount:    amount,
			Rate:      rate,
			UserLevel: member.Rank,
		})
	}
	return preview
}

// SettleOrder 结算一个已支付订单：在同一事务内标记订单已结算并写入全部佣金记录
func (s *CommissionService) SettleOrder(ctx context.Context, orderNo string) ([]*model.CommissionRecord, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New(constants.ErrOrderNotFound)
	}
	if order.Status != model.OrderStatusPaid {
		return nil, errors.New(constants.ErrOrderNotPaid)
	}
	if order.CommissionSettled {
		return nil, errors.New(constants.ErrOrderSettled)
	}

	seller, err := s.lookup.Get(ctx, order.SellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, errors.New(constants.MsgMemberNotFound)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.WithTx(tx).MarkCommissionSettled(ctx, orderNo); err != nil {
		tx.Rollback()
		return nil, err
	}

	records, err := s.CalculateAndDistributeCommission(ctx, types.CommissionParams{
		OrderNo:     orderNo,
		SellerID:    order.SellerID,
		SellerLevel: seller.Rank,
		TotalAmount: order.Amount,
	}, tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("订单佣金结算完成",
		"order_no", orderNo, "seller_id", order.SellerID,
		"record_count", len(records))
	return records, nil
}

// CalculateTeamPerformance 统计团队（leader本人及其推荐子树）在时间窗口内的业绩
func (s *CommissionService) CalculateTeamPerformance(ctx context.Context, leaderID int64, start, end time.Time) (*types.TeamPerformance, error) {
	leader, err := s.lookup.Get(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	if leader == nil {
		return nil, errors.New(constants.MsgMemberNotFound)
	}

	team, err := s.memberRepo.FindTeamMembers(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	members := append([]*model.Member{leader}, team...)

	ids := make([]int64, 0, len(members))
	activeCount := 0
	for _, m := range members {
		ids = append(ids, m.ID)
		if m.IsActive() {
			activeCount++
		}
	}

	orderAgg, err := s.orderRepo.AggregateBySellers(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}
	commAgg, err := s.commissionRepo.AggregateByBeneficiaries(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}

	return &types.TeamPerformance{
		LeaderID:          leaderID,
		MemberCount:       len(members),
		ActiveMemberCount: activeCount,
		OrderCount:        orderAgg.Count,
		OrderAmount:       orderAgg.TotalAmount,
		PendingCommission: commAgg.PendingAmount,
		PaidCommission:    commAgg.PaidAmount,
		StartTime:         start,
		EndTime:           end,
	}, nil
}

// GetUserCommissionStats 统计单个会员在时间窗口内的佣金
func (s *CommissionService) GetUserCommissionStats(ctx context.Context, userID int64, start, end time.Time) (*types.CommissionStats, error) {
	agg, err := s.commissionRepo.AggregateByBeneficiaries(ctx, []int64{userID}, start, end)
	if err != nil {
		return nil, err
	}
	return &types.CommissionStats{
		UserID:        userID,
		TotalCount:    agg.TotalCount,
		TotalAmount:   agg.TotalAmount,
		PendingAmount: agg.PendingAmount,
		PaidAmount:    agg.PaidAmount,
		FailedAmount:  agg.FailedAmount,
		StartTime:     start,
		EndTime:       end,
	}, nil
}
