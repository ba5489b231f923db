package model

import (
	"database/sql"
	"time"
)

// 订单状态
const (
	OrderStatusPending   = 0 // 待支付
	OrderStatusPaid      = 1 // 已支付
	OrderStatusCancelled = 2 // 已取消
)

// Order 订单模型
type Order struct {
	ID                uint64       `db:"id" json:"id"`
	OrderNo           string       `db:"order_no" json:"order_no"`
	BuyerID           int64        `db:"buyer_id" json:"buyer_id"`
	SellerID          int64        `db:"seller_id" json:"seller_id"`
	OfferID           int64        `db:"offer_id" json:"offer_id"`
	VariantID         int64        `db:"variant_id" json:"variant_id"`
	Quantity          int          `db:"quantity" json:"quantity"`
	Amount            float64      `db:"amount" json:"amount"`
	Status            int          `db:"status" json:"status"` // 0: 待支付, 1: 已支付, 2: 已取消
	CommissionSettled bool         `db:"commission_settled" json:"commission_settled"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
	PaidAt            sql.NullTime `db:"paid_at" json:"paid_at,omitempty"`
}
