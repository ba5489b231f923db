package model

import (
	"encoding/json"
	"time"
)

// 佣金记录状态
const (
	CommissionStatusPending = 0 // 待发放
	CommissionStatusPaid    = 1 // 已发放
	CommissionStatusFailed  = 2 // 发放失败
)

// CommissionSourcePurchase 进货产生的佣金
const CommissionSourcePurchase = "PURCHASE"

// CommissionMethodDegressive 递减分佣算法标记
const CommissionMethodDegressive = "degressive"

// CommissionRecord 佣金记录，创建后由外部对账/发放流程更新状态
type CommissionRecord struct {
	ID             string    `db:"id" json:"id"` // UUID
	OrderNo        string    `db:"order_no" json:"order_no"`
	BeneficiaryID  int64     `db:"beneficiary_id" json:"beneficiary_id"`
	SourceMemberID int64     `db:"source_member_id" json:"source_member_id"` // 卖家
	SourceType     string    `db:"source_type" json:"source_type"`
	Amount         float64   `db:"amount" json:"amount"`
	Rate           float64   `db:"rate" json:"rate"`
	Depth          int       `db:"depth" json:"depth"` // 1为卖家本人，向上递增
	Status         int       `db:"status" json:"status"` // 0: 待发放, 1: 已发放, 2: 发放失败
	Metadata       string    `db:"metadata" json:"metadata"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CommissionMetadata 佣金记录附加信息，序列化为JSON存储
type CommissionMetadata struct {
	PathDepth int     `json:"path_depth"` // 本次分佣链路总长度
	MaxDepth  int     `json:"max_depth"`
	BaseRate  float64 `json:"base_rate"`
	Method    string  `json:"method"`
}

// Encode 序列化为JSON字符串
func (m CommissionMetadata) Encode() string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}
