package model

// LevelComparison 买卖双方等级比较结果
type LevelComparison struct {
	BuyerRank           Rank  `json:"buyer_rank"`
	SellerRank          Rank  `json:"seller_rank"`
	EffectiveSellerRank Rank  `json:"effective_seller_rank"` // 同级上浮后的有效卖家等级
	Escalated           bool  `json:"escalated"`
	EscalatedVia        int64 `json:"escalated_via,omitempty"` // 上浮到的上级会员ID
}

// PerformanceSnapshot 校验器运行统计快照
type PerformanceSnapshot struct {
	TotalValidations uint64  `json:"total_validations"`
	Rejected         uint64  `json:"rejected"`
	CacheHits        uint64  `json:"cache_hits"`
	CacheMisses      uint64  `json:"cache_misses"`
	AvgLatencyMs     float64 `json:"avg_latency_ms"`
}

// ValidationMetadata 校验结果附加信息
type ValidationMetadata struct {
	TraceID         string              `json:"trace_id"`
	BuyerRank       Rank                `json:"buyer_rank"`
	SellerRank      Rank                `json:"seller_rank"`
	Relationship    *RelationshipResult `json:"relationship,omitempty"`
	LevelComparison *LevelComparison    `json:"level_comparison,omitempty"`
	Performance     PerformanceSnapshot `json:"performance"`
}

// ValidationResult 购买校验结果，每次校验新建，不落库
type ValidationResult struct {
	IsValid     bool               `json:"is_valid"`
	CanPurchase bool               `json:"can_purchase"`
	Reasons     []string           `json:"reasons"`
	Metadata    ValidationMetadata `json:"metadata"`
}
