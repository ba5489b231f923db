package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"zhongdao/internal/model"
)

// MemberRepository 会员仓库接口
type MemberRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Member, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Member, error)
	GetByToken(ctx context.Context, token string) (*model.Member, error)
	// FindTeamMembers 返回物化路径中包含leaderID的所有下级会员
	FindTeamMembers(ctx context.Context, leaderID int64) ([]*model.Member, error)
}

// memberRepository 会员仓库实现
type memberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository 创建会员仓库实例
func NewMemberRepository(db *sqlx.DB) MemberRepository {
	return &memberRepository{db: db}
}

// GetByID 根据ID获取会员，不存在时返回nil而不是错误
func (r *memberRepository) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	member := &model.Member{}
	query := `SELECT * FROM members WHERE id = ?`
	err := r.db.GetContext(ctx, member, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return member, nil
}

// GetByIDs 批量获取会员，缺失的ID不在结果中
func (r *memberRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Member, error) {
	if len(ids) == 0 {
		return []*model.Member{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM members WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	members := []*model.Member{}
	if err := r.db.SelectContext(ctx, &members, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return members, nil
}

// GetByToken 根据Token获取会员
func (r *memberRepository) GetByToken(ctx context.Context, token string) (*model.Member, error) {
	member := &model.Member{}
	query := `SELECT * FROM members WHERE token = ?`
	err := r.db.GetContext(ctx, member, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("会员不存在")
		}
		return nil, err
	}
	return member, nil
}

// FindTeamMembers 查找leaderID的推荐子树中的所有会员。
// 下级会员的物化路径中必然包含leaderID这个路径元素。
func (r *memberRepository) FindTeamMembers(ctx context.Context, leaderID int64) ([]*model.Member, error) {
	members := []*model.Member{}
	query := `SELECT * FROM members WHERE CONCAT('/', path, '/') LIKE CONCAT('%/', ?, '/%')`
	if err := r.db.SelectContext(ctx, &members, query, leaderID); err != nil {
		return nil, err
	}
	return members, nil
}
