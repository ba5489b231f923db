package service

import (
	"context"

	"zhongdao/internal/constants"
	"zhongdao/internal/model"
	"zhongdao/pkg/logger"
)

// TeamRelationshipService 团队关系校验服务。
// 基于物化路径判断两个会员之间是否存在上下级关系。
type TeamRelationshipService struct {
	lookup *MemberLookup
	logger *logger.Logger
}

// NewTeamRelationshipService 创建团队关系校验服务
func NewTeamRelationshipService(lookup *MemberLookup, logger *logger.Logger) *TeamRelationshipService {
	return &TeamRelationshipService{
		lookup: lookup,
		logger: logger,
	}
}

// ValidateTeamRelationship 校验candidateID是否为memberID的上级。
// 距离为候选上级到会员的跳数（含会员本身），路径为两端之间的中间节点。
// 仅当会员的物化路径加载成功时关系才可能有效。
func (s *TeamRelationshipService) ValidateTeamRelationship(ctx context.Context, candidateID, memberID int64) (*model.RelationshipResult, error) {
	invalid := func(msg string) *model.RelationshipResult {
		return &model.RelationshipResult{
			IsValid: false,
			Type:    model.RelationshipNone,
			Message: msg,
		}
	}

	// 自己不能作为自己的上级
	if candidateID == memberID {
		return invalid(constants.MsgSelfRelationship), nil
	}

	member, err := s.lookup.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return invalid(constants.MsgMemberNotFound), nil
	}

	candidate, err := s.lookup.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return invalid(constants.MsgMemberNotFound), nil
	}

	pathIDs := member.PathIDs()
	if len(pathIDs) == 0 {
		return invalid(constants.MsgMissingPath), nil
	}

	// 在物化路径中定位候选上级
	index := -1
	for i, id := range pathIDs {
		if id == candidateID {
			index = i
			break
		}
	}
	if index < 0 {
		return invalid(constants.MsgNotInSameTree), nil
	}

	// 路径为根到父级的祖先列表，候选上级到会员的跳数为剩余路径长度加上会员本身
	distance := len(pathIDs) - index
	intermediates := make([]int64, len(pathIDs)-index-1)
	copy(intermediates, pathIDs[index+1:])

	relType := model.RelationshipIndirect
	if distance == 1 {
		relType = model.RelationshipDirect
	}

	return &model.RelationshipResult{
		IsValid:  true,
		Distance: distance,
		Path:     intermediates,
		Type:     relType,
	}, nil
}
