package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/pkg/cache"
	"zhongdao/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("error")
}

func i64(v int64) *int64 {
	return &v
}

// newMember 构造测试会员，path为物化路径（根到父级），空字符串表示无路径
func newMember(id int64, rank model.Rank, status int, path string) *model.Member {
	m := &model.Member{ID: id, Rank: rank, Status: status}
	if path != "" {
		m.Path = sql.NullString{String: path, Valid: true}
	}
	return m
}

// fakeMemberRepo 内存会员仓库
type fakeMemberRepo struct {
	members map[int64]*model.Member
	teams   map[int64][]*model.Member
	err     error
}

func newFakeMemberRepo(members ...*model.Member) *fakeMemberRepo {
	f := &fakeMemberRepo{
		members: make(map[int64]*model.Member),
		teams:   make(map[int64][]*model.Member),
	}
	for _, m := range members {
		f.members[m.ID] = m
	}
	return f
}

func (f *fakeMemberRepo) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[id], nil
}

func (f *fakeMemberRepo) GetByIDs(ctx context.Context, ids []int64) ([]*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := []*model.Member{}
	for _, id := range ids {
		if m, ok := f.members[id]; ok {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f *fakeMemberRepo) GetByToken(ctx context.Context, token string) (*model.Member, error) {
	for _, m := range f.members {
		if m.Token.Valid && m.Token.String == token {
			return m, nil
		}
	}
	return nil, errors.New("会员不存在")
}

func (f *fakeMemberRepo) FindTeamMembers(ctx context.Context, leaderID int64) ([]*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.teams[leaderID], nil
}

// newTestLookup 构造带进程内缓存的会员读取器
func newTestLookup(repo repository.MemberRepository) *MemberLookup {
	memberCache := cache.New(cache.Options[*model.Member]{DisableSweep: true})
	return NewMemberLookup(repo, memberCache)
}

func newTestChainCache() *cache.Cache[[]model.ChainMember] {
	return cache.New(cache.Options[[]model.ChainMember]{DisableSweep: true})
}

// fakeOfferRepo 内存商品仓库
type fakeOfferRepo struct {
	offers       map[int64]*model.Offer
	restrictions map[int64]*model.PurchaseRestriction
}

func newFakeOfferRepo(offers ...*model.Offer) *fakeOfferRepo {
	f := &fakeOfferRepo{
		offers:       make(map[int64]*model.Offer),
		restrictions: make(map[int64]*model.PurchaseRestriction),
	}
	for _, o := range offers {
		f.offers[o.ID] = o
	}
	return f
}

func (f *fakeOfferRepo) GetByID(ctx context.Context, id int64) (*model.Offer, error) {
	return f.offers[id], nil
}

func (f *fakeOfferRepo) GetPurchaseRestriction(ctx context.Context, offerID int64) (*model.PurchaseRestriction, error) {
	return f.restrictions[offerID], nil
}

// fakeCommissionRepo 内存佣金账本
type fakeCommissionRepo struct {
	records   []*model.CommissionRecord
	createErr error
	agg       repository.CommissionAggregate
}

func (f *fakeCommissionRepo) Create(ctx context.Context, record *model.CommissionRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeCommissionRepo) FindByOrderNo(ctx context.Context, orderNo string) ([]*model.CommissionRecord, error) {
	result := []*model.CommissionRecord{}
	for _, r := range f.records {
		if r.OrderNo == orderNo {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeCommissionRepo) FindByBeneficiary(ctx context.Context, beneficiaryID int64, start, end time.Time) ([]*model.CommissionRecord, error) {
	result := []*model.CommissionRecord{}
	for _, r := range f.records {
		if r.BeneficiaryID == beneficiaryID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeCommissionRepo) AggregateByBeneficiaries(ctx context.Context, beneficiaryIDs []int64, start, end time.Time) (*repository.CommissionAggregate, error) {
	agg := f.agg
	return &agg, nil
}

func (f *fakeCommissionRepo) WithTx(tx *sqlx.Tx) repository.CommissionRepository {
	return f
}

// fakeOrderRepo 内存订单仓库，BeginTx不可用（结算的事务路径需要真实数据库）
type fakeOrderRepo struct {
	orders  map[string]*model.Order
	settled []string
	agg     repository.OrderAggregate
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[string]*model.Order)}
	for _, o := range orders {
		f.orders[o.OrderNo] = o
	}
	return f
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	f.orders[order.OrderNo] = order
	return nil
}

func (f *fakeOrderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	return f.orders[orderNo], nil
}

func (f *fakeOrderRepo) MarkCommissionSettled(ctx context.Context, orderNo string) error {
	f.settled = append(f.settled, orderNo)
	return nil
}

func (f *fakeOrderRepo) ListPaidUnsettled(ctx context.Context, limit int) ([]*model.Order, error) {
	result := []*model.Order{}
	for _, o := range f.orders {
		if o.Status == model.OrderStatusPaid && !o.CommissionSettled {
			result = append(result, o)
		}
	}
	return result, nil
}

func (f *fakeOrderRepo) AggregateBySellers(ctx context.Context, sellerIDs []int64, start, end time.Time) (*repository.OrderAggregate, error) {
	agg := f.agg
	return &agg, nil
}

func (f *fakeOrderRepo) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return nil, errors.New("fake repository does not support transactions")
}

func (f *fakeOrderRepo) WithTx(tx *sqlx.Tx) repository.OrderRepository {
	return f
}

// fakeBenefits 固定比例的等级权益提供方
type fakeBenefits struct {
	rates map[model.Rank]float64
	err   error
}

func (f *fakeBenefits) GetByRank(ctx context.Context, rank model.Rank) (*repository.RankBenefit, error) {
	if f.err != nil {
		return nil, f.err
	}
	rate, ok := f.rates[rank]
	if !ok {
		return nil, errors.New("等级权益配置不存在")
	}
	return &repository.RankBenefit{Rank: rank, CommissionRate: rate}, nil
}
