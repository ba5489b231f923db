package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"zhongdao/internal/model"
)

// CommissionAggregate 佣金聚合结果
type CommissionAggregate struct {
	TotalCount    int64   `db:"total_count"`
	TotalAmount   float64 `db:"total_amount"`
	PendingAmount float64 `db:"pending_amount"`
	PaidAmount    float64 `db:"paid_amount"`
	FailedAmount  float64 `db:"failed_amount"`
}

// CommissionRepository 佣金账本仓库接口
type CommissionRepository interface {
	Create(ctx context.Context, record *model.CommissionRecord) error
	FindByOrderNo(ctx context.Context, orderNo string) ([]*model.CommissionRecord, error)
	FindByBeneficiary(ctx context.Context, beneficiaryID int64, start, end time.Time) ([]*model.CommissionRecord, error)
	// AggregateByBeneficiaries 统计一组会员在时间窗口内的佣金
	AggregateByBeneficiaries(ctx context.Context, beneficiaryIDs []int64, start, end time.Time) (*CommissionAggregate, error)
}

// TransactionalCommissionRepository 扩展了CommissionRepository以支持事务
type TransactionalCommissionRepository interface {
	CommissionRepository
	WithTx(tx *sqlx.Tx) CommissionRepository // 返回一个在事务上下文中操作的CommissionRepository
}

// commissionRepository 佣金账本仓库实现
type commissionRepository struct {
	db *sqlx.DB // 直接数据库连接
	tx *sqlx.Tx // 可选的事务连接
}

// NewCommissionRepository 创建佣金账本仓库实例
func NewCommissionRepository(db *sqlx.DB) TransactionalCommissionRepository {
	return &commissionRepository{db: db}
}

// WithTx 返回一个在提供的事务上下文中操作的仓库实例
func (r *commissionRepository) WithTx(tx *sqlx.Tx) CommissionRepository {
	return &commissionRepository{db: r.db, tx: tx}
}

// Create 创建佣金记录
func (r *commissionRepository) Create(ctx context.Context, record *model.CommissionRecord) error {
	query := `INSERT INTO commission_records
		(id, order_no, beneficiary_id, source_member_id, source_type, amount, rate, depth, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	var err error
	if r.tx != nil {
		_, err = r.tx.ExecContext(ctx, query,
			record.ID, record.OrderNo, record.BeneficiaryID, record.SourceMemberID,
			record.SourceType, record.Amount, record.Rate, record.Depth,
			record.Status, record.Metadata)
	} else {
		_, err = r.db.ExecContext(ctx, query,
			record.ID, record.OrderNo, record.BeneficiaryID, record.SourceMemberID,
			record.SourceType, record.Amount, record.Rate, record.Depth,
			record.Status, record.Metadata)
	}
	return err
}

// FindByOrderNo 获取一个订单的全部佣金记录
func (r *commissionRepository) FindByOrderNo(ctx context.Context, orderNo string) ([]*model.CommissionRecord, error) {
	records := []*model.CommissionRecord{}
	query := `SELECT * FROM commission_records WHERE order_no = ? ORDER BY depth`
	var err error
	if r.tx != nil {
		err = r.tx.SelectContext(ctx, &records, query, orderNo)
	} else {
		err = r.db.SelectContext(ctx, &records, query, orderNo)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByBeneficiary 获取会员在时间窗口内的佣金记录
func (r *commissionRepository) FindByBeneficiary(ctx context.Context, beneficiaryID int64, start, end time.Time) ([]*model.CommissionRecord, error) {
	records := []*model.CommissionRecord{}
	query := `SELECT * FROM commission_records
		WHERE beneficiary_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at DESC`
	var err error
	if r.tx != nil {
		err = r.tx.SelectContext(ctx, &records, query, beneficiaryID, start, end)
	} else {
		err = r.db.SelectContext(ctx, &records, query, beneficiaryID, start, end)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AggregateByBeneficiaries 统计一组会员在时间窗口内的佣金总额及各状态金额
func (r *commissionRepository) AggregateByBeneficiaries(ctx context.Context, beneficiaryIDs []int64, start, end time.Time) (*CommissionAggregate, error) {
	agg := &CommissionAggregate{}
	if len(beneficiaryIDs) == 0 {
		return agg, nil
	}
	query, args, err := sqlx.In(`SELECT
			COUNT(*) AS total_count,
			COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(SUM(CASE WHEN status = 0 THEN amount ELSE 0 END), 0) AS pending_amount,
			COALESCE(SUM(CASE WHEN status = 1 THEN amount ELSE 0 END), 0) AS paid_amount,
			COALESCE(SUM(CASE WHEN status = 2 THEN amount ELSE 0 END), 0) AS failed_amount
		FROM commission_records
		WHERE beneficiary_id IN (?) AND created_at >= ? AND created_at < ?`,
		beneficiaryIDs, start, end)
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
