package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/auth"
)

type Limiter interface {
	AllowRequest(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc names the buckets a request is counted against. The request is
// refused as soon as one of them is exhausted.
type KeyFunc func(c *gin.Context) []string

// ByCaller counts per authenticated subject, falling back to the client ip.
func ByCaller(c *gin.Context) []string {
	if id, ok := auth.IdentityFrom(c.Request.Context()); ok {
		return []string{id.Subject}
	}
	return []string{c.ClientIP()}
}

const maxPeekBytes = 64 << 10

// ByIPAndEmail counts per client ip and, when the JSON body names one, per
// email address. The body is restored for the handler.
func ByIPAndEmail(c *gin.Context) []string {
	keys := []string{c.ClientIP()}
	if c.Request.Body == nil {
		return keys
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPeekBytes))
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
	if err != nil {
		return keys
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Email != "" {
		keys = append(keys, "email:"+strings.ToLower(strings.TrimSpace(body.Email)))
	}
	return keys
}

// RateLimit caps how often one caller may hit action within window.
func RateLimit(limiter Limiter, action string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return RateLimitBy(limiter, action, limit, window, ByCaller, log)
}

// RateLimitBy is RateLimit with the buckets chosen by keys. A nil limiter
// disables the check. Limiter failures let the request through.
func RateLimitBy(limiter Limiter, action string, limit int, window time.Duration, keys KeyFunc, log *zap.Logger) gin.HandlerFunc {
	if limiter == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		for _, k := range keys(c) {
			key := fmt.Sprintf("rate:limit:%s:%s", k, action)

			allowed, err := limiter.AllowRequest(c.Request.Context(), key, limit, window)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				continue
			}
			if !allowed {
				abort(c, apperr.RateLimited())
				return
			}
		}
		c.Next()
	}
}
