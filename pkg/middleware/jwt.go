package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/utils/jwt"
)

// JWTAuth validates the bearer token and stores the caller as the actor of
// the request context.
func JWTAuth(jwtManager *jwt.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, errors.ErrUnauthorized.WithReason("authorization header required"))
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			abort(c, errors.ErrUnauthorized.WithReason("invalid authorization header"))
			return
		}

		claims, err := jwtManager.ValidateToken(bearerToken[1])
		if err != nil {
			abort(c, errors.ErrInvalidToken.WithReason(err.Error()))
			return
		}

		// 클레임 정보를 컨텍스트에 저장
		c.Set("userID", claims.UserID)
		c.Set("roles", claims.Roles)
		ctx := admin.WithActor(c.Request.Context(), admin.Actor{ID: claims.UserID, Roles: claims.Roles})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abort(c *gin.Context, err *errors.StatusError) {
	c.AbortWithStatusJSON(err.Code, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
			"reason":  err.Reason,
		},
	})
}
