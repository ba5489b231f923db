package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"zhongdao/internal/model"
)

// RankBenefit 等级权益模型
type RankBenefit struct {
	Rank                model.Rank `db:"rank"`
	Name                string     `db:"name"`
	CommissionRate      float64    `db:"commission_rate"`
	MaxPurchaseQuantity int        `db:"max_purchase_quantity"`
}

// RankBenefitRepository 等级权益仓库接口
type RankBenefitRepository interface {
	GetByRank(ctx context.Context, rank model.Rank) (*RankBenefit, error)
	List(ctx context.Context) ([]*RankBenefit, error)
}

// rankBenefitRepository 等级权益仓库实现
type rankBenefitRepository struct {
	db *sqlx.DB
}

// NewRankBenefitRepository 创建等级权益仓库实例
func NewRankBenefitRepository(db *sqlx.DB) RankBenefitRepository {
	return &rankBenefitRepository{db: db}
}

// GetByRank 根据等级获取权益配置
func (r *rankBenefitRepository) GetByRank(ctx context.Context, rank model.Rank) (*RankBenefit, error) {
	benefit := &RankBenefit{}
	query := `SELECT * FROM rank_benefits WHERE ` + "`rank`" + ` = ?`
	err := r.db.GetContext(ctx, benefit, query, rank)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("等级权益配置不存在")
		}
		return nil, err
	}
	return benefit, nil
}

// List 获取所有等级权益配置
func (r *rankBenefitRepository) List(ctx context.Context) ([]*RankBenefit, error) {
	benefits := []*RankBenefit{}
	query := `SELECT * FROM rank_benefits ORDER BY ` + "`rank`"
	if err := r.db.SelectContext(ctx, &benefits, query); err != nil {
		return nil, err
	}
	return benefits, nil
}
