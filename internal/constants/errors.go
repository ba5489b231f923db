package constants

// 购买校验拒绝原因
const (
	ErrBuyerOrSellerNotFound = "买家或卖家不存在"
	ErrAccountStatusAbnormal = "账号状态异常"
	ErrNoTeamRelationship    = "不存在有效的团队关系，进货要求买卖双方同属一个团队"
	ErrRankOrderViolation    = "买家等级大于或等于卖家等级，违反进货规则"
	ErrOfferNotFound         = "商品不存在"
	ErrOfferDelisted         = "商品已下架"
	ErrNoActiveVariant       = "商品没有可购买的规格"
	ErrQuantityExceedsLimit  = "购买数量超过单次限购上限"
	ErrRankBelowMinimum      = "买家等级低于该商品的最低购买等级"
	ErrValidationSystem      = "校验过程发生系统错误"

	// 库存不足原因模板，参数为现有库存和需要数量
	ErrInsufficientStockFmt = "库存不足：现有%d，需要%d"
)

// 团队关系相关消息
const (
	MsgMemberNotFound    = "会员不存在"
	MsgSelfRelationship  = "会员不能与自己构成上下级关系"
	MsgMissingPath       = "会员缺少层级路径，无法校验团队关系"
	MsgNotInSameTree     = "候选上级不在该会员的层级路径中"
	MsgNoQualifiedUpline = "在限定层数内没有满足等级要求的上级"
	MsgNoOptimalSupplier = "上级链路中没有等级更高的供货方"
)

// 订单与结算相关错误
const (
	ErrOrderNotFound  = "订单不存在"
	ErrOrderNotPaid   = "订单未支付，不能结算"
	ErrOrderSettled   = "订单佣金已结算"
	ErrInternalServer = "服务器内部错误"
	ErrInvalidParams  = "参数错误"
	ErrUnauthorized   = "未授权，请先登录"
	ErrInvalidToken   = "无效的Token"
)

// 成功消息
const (
	SuccessGet    = "获取成功"
	SuccessCreate = "创建成功"
	SuccessSettle = "结算成功"
)
