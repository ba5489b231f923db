package model

import "time"

// 商品状态
const (
	OfferStatusInactive = 0 // 已下架
	OfferStatusActive   = 1 // 上架中
)

// Offer 可购买商品
type Offer struct {
	ID         int64          `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Status     int            `db:"status" json:"status"` // 0: 已下架, 1: 上架中
	TotalStock int            `db:"total_stock" json:"total_stock"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
	Variants   []OfferVariant `db:"-" json:"variants"`
}

// OfferVariant 商品规格
type OfferVariant struct {
	ID       int64   `db:"id" json:"id"`
	OfferID  int64   `db:"offer_id" json:"offer_id"`
	Name     string  `db:"name" json:"name"`
	Stock    int     `db:"stock" json:"stock"`
	Price    float64 `db:"price" json:"price"`
	IsActive bool    `db:"is_active" json:"is_active"`
}

// AvailableStock 规格库存合计，校验时以此为准而不是total_stock列
func (o *Offer) AvailableStock() int {
	total := 0
	for _, v := range o.Variants {
		total += v.Stock
	}
	return total
}

// HasActiveVariant 是否存在可购买的规格
func (o *Offer) HasActiveVariant() bool {
	for _, v := range o.Variants {
		if v.IsActive {
			return true
		}
	}
	return false
}

// FirstActiveVariant 返回第一个可购买的规格，没有时返回nil
func (o *Offer) FirstActiveVariant() *OfferVariant {
	for i := range o.Variants {
		if o.Variants[i].IsActive {
			return &o.Variants[i]
		}
	}
	return nil
}

// PurchaseRestriction 商品限购配置
type PurchaseRestriction struct {
	OfferID     int64 `db:"offer_id" json:"offer_id"`
	MaxQuantity int   `db:"max_quantity" json:"max_quantity"` // 单次最大购买数量
	MinRank     Rank  `db:"min_rank" json:"min_rank"`         // 买家最低等级
}
