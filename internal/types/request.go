package types

import (
	"time"

	"zhongdao/internal/model"
)

// PurchaseRequest 进货/校验请求
type PurchaseRequest struct {
	BuyerID   int64 `json:"buyer_id" binding:"required"`
	SellerID  int64 `json:"seller_id" binding:"required"`
	OfferID   int64 `json:"offer_id" binding:"required"`
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CommissionParams 分佣计算参数
type CommissionParams struct {
	OrderNo     string     `json:"order_no" binding:"required"`
	SellerID    int64      `json:"seller_id" binding:"required"`
	SellerLevel model.Rank `json:"seller_level"`
	TotalAmount float64    `json:"total_amount" binding:"required,gt=0"`
	MaxDepth    int        `json:"max_depth"`
}

// SettlementRequest 订单结算请求
type SettlementRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// CommissionBreakdownItem 分佣预览明细
type CommissionBreakdownItem struct {
	UserID    int64      `json:"user_id"`
	Level     int        `json:"level"` // 分佣层级，1为卖家本人
	Amount    float64    `json:"amount"`
	Rate      float64    `json:"rate"`
	UserLevel model.Rank `json:"user_level"`
}

// CommissionPreview 分佣预览结果
type CommissionPreview struct {
	TotalCommission     float64                   `json:"total_commission"`
	CommissionBreakdown []CommissionBreakdownItem `json:"commission_breakdown"`
}

// TeamPerformance 团队业绩统计
type TeamPerformance struct {
	LeaderID          int64     `json:"leader_id"`
	MemberCount       int       `json:"member_count"`
	ActiveMemberCount int       `json:"active_member_count"`
	OrderCount        int64     `json:"order_count"`
	OrderAmount       float64   `json:"order_amount"`
	PendingCommission float64   `json:"pending_commission"`
	PaidCommission    float64   `json:"paid_commission"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// CommissionStats 个人佣金统计
type CommissionStats struct {
	UserID        int64     `json:"user_id"`
	TotalCount    int64     `json:"total_count"`
	TotalAmount   float64   `json:"total_amount"`
	PendingAmount float64   `json:"pending_amount"`
	PaidAmount    float64   `json:"paid_amount"`
	FailedAmount  float64   `json:"failed_amount"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}
