package api

import (
	"time"

	"districtrisk/domain/core"
	"districtrisk/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the per-request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// requestID propagates an incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := core.ID(c.GetHeader(RequestIDHeader))
		if id.IsEmpty() || len(id) > 128 {
			id = core.ID(core.NewRequestID())
		}
		c.Set(requestIDKey, id.String())
		c.Header(RequestIDHeader, id.String())
		c.Next()
	}
}

// observeRequests records status and latency per route template.
func observeRequests(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
