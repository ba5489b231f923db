package service

import (
	"context"
	"errors"
	"fmt"

	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/pkg/cache"
)

// errMemberMissing 内部哨兵错误，阻止缓存空结果
var errMemberMissing = errors.New("member missing")

// MemberLookup 带缓存的会员读取器，团队关系校验和上级链路查找共用，
// 避免同一次请求内反复回表
type MemberLookup struct {
	memberRepo  repository.MemberRepository
	memberCache *cache.Cache[*model.Member]
}

// NewMemberLookup 创建会员读取器
func NewMemberLookup(memberRepo repository.MemberRepository, memberCache *cache.Cache[*model.Member]) *MemberLookup {
	return &MemberLookup{
		memberRepo:  memberRepo,
		memberCache: memberCache,
	}
}

func memberCacheKey(id int64) string {
	return fmt.Sprintf("member:%d", id)
}

// Get 获取会员，不存在时返回nil；缺失的会员不会被缓存
func (l *MemberLookup) Get(ctx context.Context, id int64) (*model.Member, error) {
	member, err := l.memberCache.GetOrSet(memberCacheKey(id), func() (*model.Member, error) {
		m, err := l.memberRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errMemberMissing
		}
		return m, nil
	})
	if err != nil {
		if errors.Is(err, errMemberMissing) {
			return nil, nil
		}
		return nil, err
	}
	return member, nil
}

// GetMany 批量获取会员，优先走缓存，缺失的ID不在结果中
func (l *MemberLookup) GetMany(ctx context.Context, ids []int64) (map[int64]*model.Member, error) {
	result := make(map[int64]*model.Member, len(ids))
	missing := make([]int64, 0, len(ids))
	for _, id := range ids {
		if m, ok := l.memberCache.Get(memberCacheKey(id)); ok {
			result[id] = m
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	members, err := l.memberRepo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		result[m.ID] = m
		l.memberCache.Set(memberCacheKey(m.ID), m)
	}
	return result, nil
}

// Invalidate 使单个会员的缓存失效
func (l *MemberLookup) Invalidate(id int64) {
	l.memberCache.Delete(memberCacheKey(id))
}
