package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pAdmin/pkg/errors"
)

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		log.Printf("Error: %v", err)

		se := errors.AsStatus(err)
		if se.Code >= http.StatusInternalServerError {
			// 내부 오류의 상세는 응답에 싣지 않는다
			c.JSON(se.Code, gin.H{
				"error": gin.H{
					"code":    se.Code,
					"message": "Internal server error",
				},
			})
			return
		}

		response := gin.H{
			"code":    se.Code,
			"message": se.Message,
		}
		if se.Reason != "" {
			response["reason"] = se.Reason
		}
		c.JSON(se.Code, gin.H{"error": response})
	}
}
