package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"convert-gateway/logging"
)

// RequestLogger logs one line per request through the gateway logger.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", args...)
		case c.Writer.Status() >= 400:
			log.Warn("request", args...)
		default:
			log.Info("request", args...)
		}
	}
}

// New builds the engine with recovery and request logging.
func New(log logging.Logger) *gin.Engine {
	if log == nil {
		log = logging.NoOp()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))
	return r
}
