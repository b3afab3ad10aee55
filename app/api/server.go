package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the upstream emulator with all routes configured
func NewServer(handler *Handler, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))
	r.Use(gin.Recovery())

	setupRoutes(r, handler, opts)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, opts Options) {
	r.GET("/health", handler.GetHealth)

	facts := r.Group("/facts")
	if opts.FailFirst > 0 {
		facts.Use(failFirst(opts.FailFirst))
	}
	{
		facts.GET("", handler.GetFacts)
		facts.GET("/random", handler.GetRandomFacts)
	}
}

// failFirst answers the first n requests with 503 to exercise client retries.
func failFirst(n int) gin.HandlerFunc {
	var served atomic.Int64
	return func(c *gin.Context) {
		if served.Add(1) <= int64(n) {
			slog.Debug("Injecting failure", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
			return
		}
		c.Next()
	}
}
