package service

import (
	"context"
	"strings"
	"testing"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/internal/types"
)

func newOrderFixture() (*OrderService, *fakeOrderRepo) {
	offerRepo := newFakeOfferRepo(&model.Offer{
		ID:     100,
		Status: model.OfferStatusActive,
		Variants: []model.OfferVariant{
			{ID: 1, OfferID: 100, Stock: 10, Price: 19.9, IsActive: false},
			{ID: 2, OfferID: 100, Stock: 50, Price: 25.5, IsActive: true},
		},
	})
	orderRepo := newFakeOrderRepo()
	return NewOrderService(orderRepo, offerRepo, testLogger()), orderRepo
}

func TestCreatePurchaseOrder(t *testing.T) {
	svc, orderRepo := newOrderFixture()

	order, err := svc.CreatePurchaseOrder(context.Background(), types.PurchaseRequest{
		BuyerID: 9, SellerID: 5, OfferID: 100, Quantity: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(order.OrderNo, "ZD") || len(order.OrderNo) != 24 {
		t.Errorf("OrderNo = %q, want ZD prefix and 24 chars", order.OrderNo)
	}
	// 未指定规格时选用第一个可购买的规格
	if order.VariantID != 2 {
		t.Errorf("VariantID = %d, want 2", order.VariantID)
	}
	if order.Amount != 51.0 {
		t.Errorf("Amount = %v, want 51.0", order.Amount)
	}
	if order.Status != model.OrderStatusPending {
		t.Errorf("Status = %d, want pending", order.Status)
	}
	if _, ok := orderRepo.orders[order.OrderNo]; !ok {
		t.Error("order not persisted")
	}
}

func TestCreatePurchaseOrderInactiveVariant(t *testing.T) {
	svc, _ := newOrderFixture()

	// 指定的规格1未上架
	_, err := svc.CreatePurchaseOrder(context.Background(), types.PurchaseRequest{
		BuyerID: 9, SellerID: 5, OfferID: 100, VariantID: 1, Quantity: 1,
	})
	if err == nil || err.Error() != constants.ErrNoActiveVariant {
		t.Errorf("err = %v, want %q", err, constants.ErrNoActiveVariant)
	}
}

func TestCreatePurchaseOrderOfferMissing(t *testing.T) {
	svc, _ := newOrderFixture()

	_, err := svc.CreatePurchaseOrder(context.Background(), types.PurchaseRequest{
		BuyerID: 9, SellerID: 5, OfferID: 404, Quantity: 1,
	})
	if err == nil || err.Error() != constants.ErrOfferNotFound {
		t.Errorf("err = %v, want %q", err, constants.ErrOfferNotFound)
	}
}
