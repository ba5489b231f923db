package service

import (
	"context"
	"fmt"
	"strings"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/pkg/cache"
	"zhongdao/pkg/logger"
)

// UplineService 上级链路查找服务。
// 优先使用物化路径一次性取出所有祖先，没有路径时退回到逐级父指针遍历。
type UplineService struct {
	lookup     *MemberLookup
	chainCache *cache.Cache[[]model.ChainMember]
	logger     *logger.Logger
}

// NewUplineService 创建上级链路查找服务
func NewUplineService(lookup *MemberLookup, chainCache *cache.Cache[[]model.ChainMember], logger *logger.Logger) *UplineService {
	return &UplineService{
		lookup:     lookup,
		chainCache: chainCache,
		logger:     logger,
	}
}

func chainCacheKey(memberID int64, maxDepth int) string {
	return fmt.Sprintf("chain:%d:%d", memberID, maxDepth)
}

// GetUplineChain 返回会员的上级链路，由近到远，最多maxDepth跳，
// 只包含正常状态的会员（非正常状态的节点被跳过，遍历继续向上）。
// 结果按(memberID, maxDepth)缓存，会员层级变动时必须调用InvalidateMember。
func (s *UplineService) GetUplineChain(ctx context.Context, memberID int64, maxDepth int) ([]model.ChainMember, error) {
	return s.chainCache.GetOrSet(chainCacheKey(memberID, maxDepth), func() ([]model.ChainMember, error) {
		return s.buildUplineChain(ctx, memberID, maxDepth)
	})
}

// buildUplineChain 实际构建上级链路
func (s *UplineService) buildUplineChain(ctx context.Context, memberID int64, maxDepth int) ([]model.ChainMember, error) {
	member, err := s.lookup.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return []model.ChainMember{}, nil
	}

	pathIDs := member.PathIDs()
	if len(pathIDs) > 0 {
		return s.chainFromPath(ctx, pathIDs, maxDepth)
	}
	return s.chainFromParents(ctx, member, maxDepth)
}

// chainFromPath 从物化路径构建链路：一次批量取出所有祖先
func (s *UplineService) chainFromPath(ctx context.Context, pathIDs []int64, maxDepth int) ([]model.ChainMember, error) {
	// 物化路径为根到父级，由近到远需要反转
	ancestors := make([]int64, 0, len(pathIDs))
	for i := len(pathIDs) - 1; i >= 0; i-- {
		ancestors = append(ancestors, pathIDs[i])
	}
	if maxDepth > 0 && len(ancestors) > maxDepth {
		ancestors = ancestors[:maxDepth]
	}

	members, err := s.lookup.GetMany(ctx, ancestors)
	if err != nil {
		return nil, err
	}

	chain := make([]model.ChainMember, 0, len(ancestors))
	for i, id := range ancestors {
		m, ok := members[id]
		if !ok || !m.IsActive() {
			continue
		}
		chain = append(chain, model.ChainMember{Member: m, Distance: i + 1})
	}
	return chain, nil
}

// chainFromParents 没有物化路径时逐级沿父指针向上遍历，
// 受maxDepth和已访问集合双重保护；检测到环或父节点缺失时
// 停止遍历并返回已有链路
func (s *UplineService) chainFromParents(ctx context.Context, start *model.Member, maxDepth int) ([]model.ChainMember, error) {
	chain := []model.ChainMember{}
	visited := map[int64]bool{start.ID: true}
	current := start

	for hops := 1; maxDepth <= 0 || hops <= maxDepth; hops++ {
		if current.ParentID == nil {
			break
		}
		parentID := *current.ParentID
		if visited[parentID] {
			s.logger.Warn("上级链路检测到环，终止遍历", "member_id", start.ID, "cycle_at", parentID)
			break
		}
		parent, err := s.lookup.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		visited[parentID] = true
		if parent.IsActive() {
			chain = append(chain, model.ChainMember{Member: parent, Distance: hops})
		}
		current = parent
	}
	return chain, nil
}

// FindHigherLevelUpline 沿上级链路查找第一个等级严格高于minRank的上级，
// 返回查找经过的路径（起点在首位）
func (s *UplineService) FindHigherLevelUpline(ctx context.Context, memberID int64, minRank model.Rank, maxDepth int) (*model.UplineSearchResult, error) {
	chain, err := s.GetUplineChain(ctx, memberID, maxDepth)
	if err != nil {
		return nil, err
	}

	searchPath := []int64{memberID}
	for _, node := range chain {
		searchPath = append(searchPath, node.Member.ID)
		if node.Member.Rank > minRank {
			return &model.UplineSearchResult{
				Found:      true,
				Member:     node.Member,
				SearchPath: searchPath,
			}, nil
		}
	}
	return &model.UplineSearchResult{
		Found:      false,
		SearchPath: searchPath,
		Message:    constants.MsgNoQualifiedUpline,
	}, nil
}

// FindOptimalSupplyPath 返回上级链路中等级严格高于该会员的节点，
// 附带各自的跳数；不存在这样的上级时结果无效
func (s *UplineService) FindOptimalSupplyPath(ctx context.Context, memberID int64, maxDepth int) (*model.SupplyPath, error) {
	member, err := s.lookup.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return &model.SupplyPath{IsValid: false, Message: constants.MsgMemberNotFound}, nil
	}

	chain, err := s.GetUplineChain(ctx, memberID, maxDepth)
	if err != nil {
		return nil, err
	}

	nodes := []model.ChainMember{}
	for _, node := range chain {
		if node.Member.Rank > member.Rank {
			nodes = append(nodes, node)
		}
	}
	if len(nodes) == 0 {
		return &model.SupplyPath{IsValid: false, Message: constants.MsgNoOptimalSupplier}, nil
	}
	return &model.SupplyPath{IsValid: true, Nodes: nodes}, nil
}

// InvalidateMember 会员层级变动后使其相关缓存失效。
// 下级会员的链路缓存由写入方对受影响的会员逐个调用本方法清除。
func (s *UplineService) InvalidateMember(memberID int64) {
	s.lookup.Invalidate(memberID)
	prefix := fmt.Sprintf("chain:%d:", memberID)
	s.chainCache.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}
