package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/logger"
)

// Recovery converts panics into the standard error envelope.
func Recovery() gin.HandlerFunc {
	log := logger.WithComponent("httpapi")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("request panicked")
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
