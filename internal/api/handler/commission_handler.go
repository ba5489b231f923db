package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"zhongdao/internal/constants"
	"zhongdao/internal/service"
	"zhongdao/internal/types"
	"zhongdao/pkg/logger"
)

// CommissionHandler 佣金处理器
type CommissionHandler struct {
	commissionService *service.CommissionService
	logger            *logger.Logger
}

// NewCommissionHandler 创建佣金处理器实例
func NewCommissionHandler(commissionService *service.CommissionService, logger *logger.Logger) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
		logger:            logger,
	}
}

// parseTimeRange 解析start/end查询参数，格式2006-01-02，缺省为最近30天
func parseTimeRange(c *gin.Context) (time.Time, time.Time) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if v := c.Query("start"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			start = t
		}
	}
	if v := c.Query("end"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end = t
		}
	}
	return start, end
}

// PreviewCommission 分佣预览
// @Summary 分佣预览
// @Description 按当前链路和等级比例预览分佣结果，不产生佣金记录
// @Tags 佣金
// @Accept json
// @Produce json
// @Param request body types.CommissionParams true "分佣参数"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/commission/preview [post]
func (h *CommissionHandler) PreviewCommission(c *gin.Context) {
	var params types.CommissionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	preview := h.commissionService.PreviewCommission(c.Request.Context(), params)
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": preview,
	})
}

// GetCommissionStats 获取个人佣金统计
// @Summary 个人佣金统计
// @Description 统计会员在时间窗口内的佣金，窗口缺省为最近30天
// @Tags 佣金
// @Produce json
// @Param user_id query int true "会员ID"
// @Param start query string false "开始日期 2006-01-02"
// @Param end query string false "结束日期 2006-01-02"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/commission/stats [get]
func (h *CommissionHandler) GetCommissionStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}
	start, end := parseTimeRange(c)

	stats, err := h.commissionService.GetUserCommissionStats(c.Request.Context(), userID, start, end)
	if err != nil {
		h.logger.Error("获取佣金统计失败", "user_id", userID, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": stats,
	})
}

// GetTeamPerformance 获取团队业绩统计
// @Summary 团队业绩统计
// @Description 统计团队长本人及其推荐子树在时间窗口内的业绩
// @Tags 佣金
// @Produce json
// @Param leader_id query int true "团队长ID"
// @Param start query string false "开始日期 2006-01-02"
// @Param end query string false "结束日期 2006-01-02"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/team/performance [get]
func (h *CommissionHandler) GetTeamPerformance(c *gin.Context) {
	leaderID, err := strconv.ParseInt(c.Query("leader_id"), 10, 64)
	if err != nil || leaderID <= 0 {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}
	start, end := parseTimeRange(c)

	performance, err := h.commissionService.CalculateTeamPerformance(c.Request.Context(), leaderID, start, end)
	if err != nil {
		if err.Error() == constants.MsgMemberNotFound {
			c.JSON(http.StatusOK, gin.H{"code": 404, "msg": constants.MsgMemberNotFound})
			return
		}
		h.logger.Error("获取团队业绩失败", "leader_id", leaderID, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": performance,
	})
}

// SettleOrder 结算订单佣金
// @Summary 结算订单佣金
// @Description 对已支付订单结算佣金，订单标记和佣金写入在同一事务内完成
// @Tags 佣金
// @Accept json
// @Produce json
// @Param request body types.SettlementRequest true "结算请求"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/settlement [post]
func (h *CommissionHandler) SettleOrder(c *gin.Context) {
	var req types.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	records, err := h.commissionService.SettleOrder(c.Request.Context(), req.OrderNo)
	if err != nil {
		switch err.Error() {
		case constants.ErrOrderNotFound:
			c.JSON(http.StatusOK, gin.H{"code": 404, "msg": constants.ErrOrderNotFound})
		case constants.ErrOrderNotPaid, constants.ErrOrderSettled:
			c.JSON(http.StatusOK, gin.H{"code": 400, "msg": err.Error()})
		default:
			h.logger.Error("订单结算失败", "order_no", req.OrderNo, "error", err)
			c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessSettle,
		"data": gin.H{
			"order_no": req.OrderNo,
			"records":  records,
		},
	})
}
