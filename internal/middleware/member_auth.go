package middleware

import (
	"context"
	"net/http"

	"zhongdao/internal/constants"
	"zhongdao/internal/repository"

	"github.com/gin-gonic/gin"
)

// MemberAuth 会员认证中间件
func MemberAuth(memberRepo repository.MemberRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取Token
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrUnauthorized})
			c.Abort()
			return
		}

		// 验证Token
		member, err := memberRepo.GetByToken(context.Background(), token)
		if err != nil || member == nil || !member.IsActive() {
			c.JSON(http.StatusOK, gin.H{"code": 401, "msg": constants.ErrInvalidToken})
			c.Abort()
			return
		}

		// 将会员ID和等级存储到上下文中，供后续处理使用
		c.Set("member_id", member.ID)
		c.Set("member_rank", int(member.Rank))
		c.Next()
	}
}
