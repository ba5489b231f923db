package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"zhongdao/internal/model"
)

// OfferRepository 商品仓库接口
type OfferRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Offer, error)
	GetPurchaseRestriction(ctx context.Context, offerID int64) (*model.PurchaseRestriction, error)
}

// offerRepository 商品仓库实现
type offerRepository struct {
	db *sqlx.DB
}

// NewOfferRepository 创建商品仓库实例
func NewOfferRepository(db *sqlx.DB) OfferRepository {
	return &offerRepository{db: db}
}

// GetByID 获取商品及其规格列表，不存在时返回nil
func (r *offerRepository) GetByID(ctx context.Context, id int64) (*model.Offer, error) {
	offer := &model.Offer{}
	query := `SELECT * FROM offers WHERE id = ?`
	err := r.db.GetContext(ctx, offer, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	variants := []model.OfferVariant{}
	variantQuery := `SELECT * FROM offer_variants WHERE offer_id = ? ORDER BY id`
	if err := r.db.SelectContext(ctx, &variants, variantQuery, id); err != nil {
		return nil, err
	}
	offer.Variants = variants
	return offer, nil
}

// GetPurchaseRestriction 获取商品限购配置，未配置时返回nil
func (r *offerRepository) GetPurchaseRestriction(ctx context.Context, offerID int64) (*model.PurchaseRestriction, error) {
	restriction := &model.PurchaseRestriction{}
	query := `SELECT * FROM purchase_restrictions WHERE offer_id = ?`
	err := r.db.GetContext(ctx, restriction, query, offerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return restriction, nil
}
