package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"zhongdao/internal/model"
)

// OrderAggregate 订单聚合结果
type OrderAggregate struct {
	Count       int64   `db:"order_count"`
	TotalAmount float64 `db:"total_amount"`
}

// OrderRepository 订单仓库接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	MarkCommissionSettled(ctx context.Context, orderNo string) error
	// ListPaidUnsettled 获取已支付但尚未结算佣金的订单
	ListPaidUnsettled(ctx context.Context, limit int) ([]*model.Order, error)
	// AggregateBySellers 统计一组卖家在时间窗口内的已支付订单
	AggregateBySellers(ctx context.Context, sellerIDs []int64, start, end time.Time) (*OrderAggregate, error)
}

// TransactionalOrderRepository 扩展了OrderRepository以支持事务
type TransactionalOrderRepository interface {
	OrderRepository
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	WithTx(tx *sqlx.Tx) OrderRepository
}

// orderRepository 订单仓库实现
type orderRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewOrderRepository 创建订单仓库实例
func NewOrderRepository(db *sqlx.DB) TransactionalOrderRepository {
	return &orderRepository{db: db}
}

// BeginTx 开始一个新的事务
func (r *orderRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// WithTx 返回一个在提供的事务上下文中操作的仓库实例
func (r *orderRepository) WithTx(tx *sqlx.Tx) OrderRepository {
	return &orderRepository{db: r.db, tx: tx}
}

// Create 创建订单
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `INSERT INTO orders
		(order_no, buyer_id, seller_id, offer_id, variant_id, quantity, amount, status, commission_settled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	var err error
	var result sql.Result
	if r.tx != nil {
		result, err = r.tx.ExecContext(ctx, query,
			order.OrderNo, order.BuyerID, order.SellerID, order.OfferID,
			order.VariantID, order.Quantity, order.Amount, order.Status, order.CommissionSettled)
	} else {
		result, err = r.db.ExecContext(ctx, query,
			order.OrderNo, order.BuyerID, order.SellerID, order.OfferID,
			order.VariantID, order.Quantity, order.Amount, order.Status, order.CommissionSettled)
	}
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)
	return nil
}

// GetByOrderNo 根据订单号获取订单，不存在时返回nil
func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	order := &model.Order{}
	query := `SELECT * FROM orders WHERE order_no = ?`
	var err error
	if r.tx != nil {
		err = r.tx.GetContext(ctx, order, query, orderNo)
	} else {
		err = r.db.GetContext(ctx, order, query, orderNo)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// MarkCommissionSettled 标记订单佣金已结算
func (r *orderRepository) MarkCommissionSettled(ctx context.Context, orderNo string) error {
	query := `UPDATE orders SET commission_settled = 1, updated_at = CURRENT_TIMESTAMP WHERE order_no = ?`
	var err error
	if r.tx != nil {
		_, err = r.tx.ExecContext(ctx, query, orderNo)
	} else {
		_, err = r.db.ExecContext(ctx, query, orderNo)
	}
	return err
}

// ListPaidUnsettled 获取已支付但尚未结算佣金的订单
func (r *orderRepository) ListPaidUnsettled(ctx context.Context, limit int) ([]*model.Order, error) {
	orders := []*model.Order{}
	query := `SELECT * FROM orders WHERE status = 1 AND commission_settled = 0 ORDER BY paid_at LIMIT ?`
	var err error
	if r.tx != nil {
		err = r.tx.SelectContext(ctx, &orders, query, limit)
	} else {
		err = r.db.SelectContext(ctx, &orders, query, limit)
	}
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// AggregateBySellers 统计一组卖家在时间窗口内的已支付订单数量和金额
func (r *orderRepository) AggregateBySellers(ctx context.Context, sellerIDs []int64, start, end time.Time) (*OrderAggregate, error) {
	agg := &OrderAggregate{}
	if len(sellerIDs) == 0 {
		return agg, nil
	}
	query, args, err := sqlx.In(`SELECT
			COUNT(*) AS order_count,
			COALESCE(SUM(amount), 0) AS total_amount
		FROM orders
		WHERE seller_id IN (?) AND status = 1 AND paid_at >= ? AND paid_at < ?`,
		sellerIDs, start, end)
	if err != nil {
		return nil, err
	}
	if r.tx != nil {
		err = r.tx.GetContext(ctx, agg, r.db.Rebind(query), args...)
	} else {
		err = r.db.GetContext(ctx, agg, r.db.Rebind(query), args...)
	}
	if err != nil {
		return nil, err
	}
	return agg, nil
}
