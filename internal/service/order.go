package service

import (
	"context"
	"errors"
	"time"

	"k8s.io/apimachinery/pkg/util/rand"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/internal/types"
	"zhongdao/pkg/logger"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo repository.TransactionalOrderRepository
	offerRepo repository.OfferRepository
	logger    *logger.Logger
}

// NewOrderService 创建订单服务实例
func NewOrderService(orderRepo repository.TransactionalOrderRepository, offerRepo repository.OfferRepository, logger *logger.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		offerRepo: offerRepo,
		logger:    logger,
	}
}

// generateOrderNo 生成订单号：ZD前缀+时间戳+8位随机后缀
func generateOrderNo() string {
	return "ZD" + time.Now().Format("20060102150405") + rand.String(8)
}

// CreatePurchaseOrder 为已通过校验的进货请求创建待支付订单。
// 指定了规格ID时使用该规格，否则使用第一个可购买的规格。
func (s *OrderService) CreatePurchaseOrder(ctx context.Context, req types.PurchaseRequest) (*model.Order, error) {
	offer, err := s.offerRepo.GetByID(ctx, req.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, errors.New(constants.ErrOfferNotFound)
	}

	var variant *model.OfferVariant
	if req.VariantID > 0 {
		for i := range offer.Variants {
			if offer.Variants[i].ID == req.VariantID && offer.Variants[i].IsActive {
				variant = &offer.Variants[i]
				break
			}
		}
	} else {
		variant = offer.FirstActiveVariant()
	}
	if variant == nil {
		return nil, errors.New(constants.ErrNoActiveVariant)
	}

	order := &model.Order{
		OrderNo:   generateOrderNo(),
		BuyerID:   req.BuyerID,
		SellerID:  req.SellerID,
		OfferID:   req.OfferID,
		VariantID: variant.ID,
		Quantity:  req.Quantity,
		Amount:    round2(variant.Price * float64(req.Quantity)),
		Status:    model.OrderStatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("创建订单失败",
			"buyer_id", req.BuyerID, "seller_id", req.SellerID,
			"offer_id", req.OfferID, "error", err)
		return nil, err
	}

	s.logger.Info("订单创建成功",
		"order_no", order.OrderNo, "buyer_id", order.BuyerID,
		"seller_id", order.SellerID, "amount", order.Amount)
	return order, nil
}

// GetByOrderNo 根据订单号获取订单
func (s *OrderService) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	return s.orderRepo.GetByOrderNo(ctx, orderNo)
}
