package service

import (
	"context"
	"fmt"
	"testing"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/internal/types"
	"zhongdao/pkg/cache"
)

// newValidationFixture 构造标准校验场景：
// 买家9挂在卖家5下面，根节点1为董事，商品100上架且有库存。
func newValidationFixture(buyerRank, sellerRank model.Rank) (*PurchaseValidationService, *fakeMemberRepo, *fakeOfferRepo) {
	memberRepo := newFakeMemberRepo(
		newMember(9, buyerRank, model.MemberStatusActive, "1/5"),
		newMember(5, sellerRank, model.MemberStatusActive, "1"),
		newMember(1, model.RankDirector, model.MemberStatusActive, ""),
	)
	offerRepo := newFakeOfferRepo(&model.Offer{
		ID:     100,
		Status: model.OfferStatusActive,
		Variants: []model.OfferVariant{
			{ID: 1, OfferID: 100, Stock: 50, Price: 10, IsActive: true},
		},
	})

	lookup := newTestLookup(memberRepo)
	log := testLogger()
	svc := NewPurchaseValidationService(
		lookup,
		offerRepo,
		NewTeamRelationshipService(lookup, log),
		NewUplineService(lookup, newTestChainCache(), log),
		cache.NewManager(),
		log,
		10,
	)
	return svc, memberRepo, offerRepo
}

func validRequest() types.PurchaseRequest {
	return types.PurchaseRequest{BuyerID: 9, SellerID: 5, OfferID: 100, Quantity: 2}
}

func assertRejected(t *testing.T, result *model.ValidationResult, wantReason string) {
	t.Helper()
	if result.IsValid || result.CanPurchase {
		t.Fatalf("validation should be rejected, got %+v", result)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != wantReason {
		t.Fatalf("Reasons = %v, want [%q]", result.Reasons, wantReason)
	}
}

func TestValidatePurchaseSuccess(t *testing.T) {
	svc, _, _ := newValidationFixture(model.RankNormal, model.RankVIP)

	result := svc.ValidatePurchase(context.Background(), validRequest())
	if !result.IsValid || !result.CanPurchase {
		t.Fatalf("validation should pass, got %+v", result)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("Reasons = %v, want empty", result.Reasons)
	}
	if result.Metadata.TraceID == "" {
		t.Error("TraceID should be set")
	}
	if result.Metadata.BuyerRank != model.RankNormal || result.Metadata.SellerRank != model.RankVIP {
		t.Errorf("metadata ranks = %v/%v, want %v/%v",
			result.Metadata.BuyerRank, result.Metadata.SellerRank, model.RankNormal, model.RankVIP)
	}
	if result.Metadata.Relationship == nil || !result.Metadata.Relationship.IsValid {
		t.Error("relationship metadata should be recorded")
	}
	if result.Metadata.LevelComparison == nil || result.Metadata.LevelComparison.Escalated {
		t.Errorf("level comparison = %+v, want non-escalated", result.Metadata.LevelComparison)
	}
}

func TestValidatePurchaseBuyerMissing(t *testing.T) {
	svc, _, _ := newValidationFixture(model.RankNormal, model.RankVIP)

	req := validRequest()
	req.BuyerID = 404
	assertRejected(t, svc.ValidatePurchase(context.Background(), req), constants.ErrBuyerOrSellerNotFound)
}

func TestValidatePurchaseSuspendedSeller(t *testing.T) {
	svc, memberRepo, _ := newValidationFixture(model.RankNormal, model.RankVIP)
	memberRepo.members[5].Status = model.MemberStatusSuspended

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrAccountStatusAbnormal)
}

func TestValidatePurchaseNoRelationship(t *testing.T) {
	svc, memberRepo, _ := newValidationFixture(model.RankNormal, model.RankVIP)
	// 卖家7与买家9不在同一棵树上
	memberRepo.members[7] = newMember(7, model.RankVIP, model.MemberStatusActive, "2")

	req := validRequest()
	req.SellerID = 7
	assertRejected(t, svc.ValidatePurchase(context.Background(), req), constants.ErrNoTeamRelationship)
}

func TestValidatePurchaseRankOrderViolation(t *testing.T) {
	// 二星代理向VIP进货，且上级链路中没有更高等级的卖家可上浮
	memberRepo := newFakeMemberRepo(
		newMember(9, model.RankTier2, model.MemberStatusActive, "1/5"),
		newMember(5, model.RankVIP, model.MemberStatusActive, "1"),
		newMember(1, model.RankTier1, model.MemberStatusActive, ""),
	)
	offerRepo := newFakeOfferRepo(&model.Offer{
		ID: 100, Status: model.OfferStatusActive,
		Variants: []model.OfferVariant{{ID: 1, OfferID: 100, Stock: 50, Price: 10, IsActive: true}},
	})
	lookup := newTestLookup(memberRepo)
	log := testLogger()
	svc := NewPurchaseValidationService(lookup, offerRepo,
		NewTeamRelationshipService(lookup, log),
		NewUplineService(lookup, newTestChainCache(), log),
		cache.NewManager(), log, 10)

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrRankOrderViolation)
}

func TestValidatePurchaseRankEscalation(t *testing.T) {
	// 买家与卖家同级，但卖家的上级1是董事，校验应上浮通过
	svc, _, _ := newValidationFixture(model.RankVIP, model.RankVIP)

	result := svc.ValidatePurchase(context.Background(), validRequest())
	if !result.IsValid {
		t.Fatalf("validation should pass via escalation, got %+v", result)
	}
	lc := result.Metadata.LevelComparison
	if lc == nil || !lc.Escalated {
		t.Fatalf("LevelComparison = %+v, want escalated", lc)
	}
	if lc.EscalatedVia != 1 || lc.EffectiveSellerRank != model.RankDirector {
		t.Errorf("escalated via %d to rank %v, want via 1 to %v", lc.EscalatedVia, lc.EffectiveSellerRank, model.RankDirector)
	}
}

func TestValidatePurchaseOfferNotFound(t *testing.T) {
	svc, _, _ := newValidationFixture(model.RankNormal, model.RankVIP)

	req := validRequest()
	req.OfferID = 404
	assertRejected(t, svc.ValidatePurchase(context.Background(), req), constants.ErrOfferNotFound)
}

func TestValidatePurchaseOfferDelisted(t *testing.T) {
	svc, _, offerRepo := newValidationFixture(model.RankNormal, model.RankVIP)
	offerRepo.offers[100].Status = model.OfferStatusInactive

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrOfferDelisted)
}

func TestValidatePurchaseInsufficientStock(t *testing.T) {
	svc, _, _ := newValidationFixture(model.RankNormal, model.RankVIP)

	req := validRequest()
	req.Quantity = 60
	want := fmt.Sprintf(constants.ErrInsufficientStockFmt, 50, 60)
	assertRejected(t, svc.ValidatePurchase(context.Background(), req), want)
}

func TestValidatePurchaseNoActiveVariant(t *testing.T) {
	svc, _, offerRepo := newValidationFixture(model.RankNormal, model.RankVIP)
	offerRepo.offers[100].Variants[0].IsActive = false

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrNoActiveVariant)
}

func TestValidatePurchaseQuantityLimit(t *testing.T) {
	svc, _, offerRepo := newValidationFixture(model.RankNormal, model.RankVIP)
	offerRepo.restrictions[100] = &model.PurchaseRestriction{OfferID: 100, MaxQuantity: 1}

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrQuantityExceedsLimit)
}

func TestValidatePurchaseRankBelowMinimum(t *testing.T) {
	svc, _, offerRepo := newValidationFixture(model.RankNormal, model.RankVIP)
	offerRepo.restrictions[100] = &model.PurchaseRestriction{OfferID: 100, MinRank: model.RankTier1}

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrRankBelowMinimum)
}

func TestValidatePurchaseStoreError(t *testing.T) {
	svc, memberRepo, _ := newValidationFixture(model.RankNormal, model.RankVIP)
	memberRepo.err = fmt.Errorf("connection refused")

	assertRejected(t, svc.ValidatePurchase(context.Background(), validRequest()), constants.ErrValidationSystem)
}

func TestValidatePurchaseStats(t *testing.T) {
	svc, _, _ := newValidationFixture(model.RankNormal, model.RankVIP)
	ctx := context.Background()

	svc.ValidatePurchase(ctx, validRequest())
	bad := validRequest()
	bad.BuyerID = 404
	svc.ValidatePurchase(ctx, bad)

	stats := svc.Stats()
	if stats.TotalValidations != 2 {
		t.Errorf("TotalValidations = %d, want 2", stats.TotalValidations)
	}
	if stats.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", stats.Rejected)
	}
}
