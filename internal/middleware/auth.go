package middleware

import (
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/util"
	"habit_coach_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfigFunc 返回当前生效的配置，热更新后返回新值
type ConfigFunc func() *config.Config

func ConfigMiddleware(current ConfigFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", current())
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}

// AuthMiddleware 校验托管认证服务签发的令牌，失败返回 401
func AuthMiddleware(current ConfigFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, current().JWT.Secret)
		if err != nil {
			logger.Log.Debug("jwt rejected", zap.Error(err), zap.String("path", c.FullPath()))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Set("userId", claims.UserID)
		c.Next()
	}
}

// TryAuthMiddleware 可选认证，令牌缺失或无效时按未登录处理
func TryAuthMiddleware(current ConfigFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := util.ParseJWT(tokenString, current().JWT.Secret); err == nil {
				c.Set("user", claims)
				c.Set("userId", claims.UserID)
			}
		}
		c.Next()
	}
}
