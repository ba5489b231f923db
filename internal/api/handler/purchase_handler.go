package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zhongdao/internal/constants"
	"zhongdao/internal/service"
	"zhongdao/internal/types"
	"zhongdao/pkg/logger"
)

// PurchaseHandler 进货处理器
type PurchaseHandler struct {
	validationService *service.PurchaseValidationService
	orderService      *service.OrderService
	logger            *logger.Logger
}

// NewPurchaseHandler 创建进货处理器实例
func NewPurchaseHandler(validationService *service.PurchaseValidationService, orderService *service.OrderService, logger *logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		validationService: validationService,
		orderService:      orderService,
		logger:            logger,
	}
}

// ValidatePurchase 校验进货请求
// @Summary 校验进货请求
// @Description 执行完整的进货校验流水线，返回校验结果和诊断信息
// @Tags 进货
// @Accept json
// @Produce json
// @Param request body types.PurchaseRequest true "进货请求"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/purchase/validate [post]
func (h *PurchaseHandler) ValidatePurchase(c *gin.Context) {
	var req types.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	result := h.validationService.ValidatePurchase(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": result,
	})
}

// CreatePurchase 校验并创建进货订单
// @Summary 创建进货订单
// @Description 校验通过后创建待支付订单
// @Tags 进货
// @Accept json
// @Produce json
// @Param request body types.PurchaseRequest true "进货请求"
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/purchase [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req types.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidParams})
		return
	}

	ctx := c.Request.Context()
	result := h.validationService.ValidatePurchase(ctx, req)
	if !result.CanPurchase {
		msg := constants.ErrInvalidParams
		if len(result.Reasons) > 0 {
			msg = result.Reasons[0]
		}
		c.JSON(http.StatusOK, gin.H{
			"code": 400,
			"msg":  msg,
			"data": result,
		})
		return
	}

	order, err := h.orderService.CreatePurchaseOrder(ctx, req)
	if err != nil {
		h.logger.Error("创建进货订单失败",
			"buyer_id", req.BuyerID, "seller_id", req.SellerID, "error", err)
		c.JSON(http.StatusOK, gin.H{"code": 500, "msg": constants.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessCreate,
		"data": gin.H{
			"order":      order,
			"validation": result,
		},
	})
}
