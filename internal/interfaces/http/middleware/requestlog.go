package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/logger"
)

// RequestRecord is one served request as shown by the debug toolbar
type RequestRecord struct {
	Time      time.Time     `json:"time"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration_ns"`
	Route     string        `json:"route,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
}

// RequestRecorder keeps the last N requests in a ring buffer
type RequestRecorder struct {
	mu         sync.Mutex
	records    []RequestRecord
	next       int
	full       bool
	skipPrefix string
}

// NewRequestRecorder keeps up to size requests. Requests under skipPrefix,
// the toolbar's own pages, are not recorded.
func NewRequestRecorder(size int, skipPrefix string) *RequestRecorder {
	if size < 1 {
		size = 1
	}
	return &RequestRecorder{records: make([]RequestRecord, size), skipPrefix: skipPrefix}
}

// Middleware records every request after it is served
func (r *RequestRecorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if r.skipPrefix != "" && strings.HasPrefix(c.Request.URL.Path, r.skipPrefix) {
			return
		}
		r.Add(RequestRecord{
			Time:      start,
			Method:    c.Request.Method,
			Path:      c.Request.URL.RequestURI(),
			Status:    c.Writer.Status(),
			Duration:  time.Since(start),
			Route:     c.GetString(logger.GinRouteNameKey),
			RequestID: c.GetString(logger.GinRequestIDKey),
			UserID:    c.GetString(logger.GinUserIDKey),
		})
	}
}

// Add stores a record, overwriting the oldest when full
func (r *RequestRecorder) Add(rec RequestRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the stored records, newest first
func (r *RequestRecorder) Recent() []RequestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.next
	if r.full {
		n = len(r.records)
	}
	out := make([]RequestRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.records)) % len(r.records)
		out = append(out, r.records[idx])
	}
	return out
}
