package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zhongdao/internal/constants"
	"zhongdao/internal/service"
	"zhongdao/pkg/logger"
)

// MemberHandler 会员层级关系处理器
type MemberHandler struct {
	relationshipService *service.TeamRelationshipService
	uplineService       *service.UplineService
	logger              *logger.Logger
	maxHops             int
}

// NewMemberHandler 创建会员层级关系处理器实例
func NewMemberHandler(relationshipService *service.TeamRelationshipService, uplineService *service.UplineService, logger *logger.Logger, maxHops int) *MemberHandler {
	return &MemberHandler{
		relationshipService: relationshipService,
		uplineService:       uplineService,
		logger:              logger,
		maxHops:             maxHops,
	}
}

// queryMemberID 从查询参数取会员ID
func queryMemberID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return 0, false
	}
	return id, true
}

// queryMaxDepth 从查询参数取最大层数，缺省使用配置的上限
func (h *MemberHandler) queryMaxDepth(c *gin.Context) int {
	if v := c.Query("max_depth"); v != "" {
		if depth, err := strconv.Atoi(v); err == nil && depth > 0 && depth <= h.maxHops {
			return depth
		}
	}
	return h.maxHops
}

// GetUplineChain 获取上级链路
// @Summary 获取上级链路
// @Description 返回会员的上级链路，由近到远，只包含正常状态的会员
// @Tags 会员
// @Produce json
// @Param member_id query int true "会员ID"
// @Param max_depth query int false "最大层数"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/member/upline [get]
func (h *MemberHandler) GetUplineChain(c *gin.Context) {
	memberID, ok := queryMemberID(c, "member_id")
	if !ok {
		return
	}

	chain, err := h.uplineService.GetUplineChain(c.Request.Context(), memberID, h.queryMaxDepth(c))
	if err != nil {
		h.logger.Error("获取上级链路失败", "member_id", memberID, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": gin.H{
			"member_id": memberID,
			"chain":     chain,
		},
	})
}

// GetSupplyPath 获取最优供货路径
// @Summary 获取最优供货路径
// @Description 返回上级链路中等级高于该会员的供货方节点
// @Tags 会员
// @Produce json
// @Param member_id query int true "会员ID"
// @Param max_depth query int false "最大层数"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/member/supply-path [get]
func (h *MemberHandler) GetSupplyPath(c *gin.Context) {
	memberID, ok := queryMemberID(c, "member_id")
	if !ok {
		return
	}

	path, err := h.uplineService.FindOptimalSupplyPath(c.Request.Context(), memberID, h.queryMaxDepth(c))
	if err != nil {
		h.logger.Error("获取供货路径失败", "member_id", memberID, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": path,
	})
}

// CheckRelationship 校验团队上下级关系
// @Summary 校验团队关系
// @Description 校验candidate_id是否是member_id的上级
// @Tags 会员
// @Produce json
// @Param candidate_id query int true "候选上级ID"
// @Param member_id query int true "会员ID"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/member/relationship [get]
func (h *MemberHandler) CheckRelationship(c *gin.Context) {
	candidateID, ok := queryMemberID(c, "candidate_id")
	if !ok {
		return
	}
	memberID, ok := queryMemberID(c, "member_id")
	if !ok {
		return
	}

	result, err := h.relationshipService.ValidateTeamRelationship(c.Request.Context(), candidateID, memberID)
	if err != nil {
		h.logger.Error("校验团队关系失败",
			"candidate_id", candidateID, "member_id", memberID, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": result,
	})
}
