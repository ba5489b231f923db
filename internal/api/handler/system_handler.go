package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zhongdao/internal/constants"
	"zhongdao/internal/service"
	"zhongdao/pkg/cache"
	"zhongdao/pkg/logger"
)

// SystemHandler 系统状态处理器
type SystemHandler struct {
	cacheManager      *cache.Manager
	validationService *service.PurchaseValidationService
	logger            *logger.Logger
}

// NewSystemHandler 创建系统状态处理器实例
func NewSystemHandler(cacheManager *cache.Manager, validationService *service.PurchaseValidationService, logger *logger.Logger) *SystemHandler {
	return &SystemHandler{
		cacheManager:      cacheManager,
		validationService: validationService,
		logger:            logger,
	}
}

// GetCacheStatus 获取各缓存实例的统计和健康状态
// @Summary 缓存状态
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/system/cache [get]
func (h *SystemHandler) GetCacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": gin.H{
			"stats":  h.cacheManager.StatsAll(),
			"health": h.cacheManager.HealthAll(),
		},
	})
}

// ClearCache 清空所有缓存实例
// @Summary 清空缓存
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/system/cache/clear [post]
func (h *SystemHandler) ClearCache(c *gin.Context) {
	h.cacheManager.ClearAll()
	h.logger.Info("所有缓存已清空", "操作IP", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "缓存已清空",
	})
}

// GetValidationStats 获取购买校验统计
// @Summary 校验统计
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{} "成功"
// @Router /api/v1/system/validation [get]
func (h *SystemHandler) GetValidationStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessGet,
		"data": h.validationService.Stats(),
	})
}
