package middleware

import (
	"fmt"
	"strconv"
	"time"

	redisStore "multisig-registry/internal/adapter/storage/redis"
	"multisig-registry/pkg/apperror"
	"multisig-registry/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the rate limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_challenge": {Limit: 20, Window: time.Minute},
		"auth_login":     {Limit: 10, Window: time.Minute},
		"wallets_create": {Limit: 10, Window: time.Minute},
		"wallet_writes":  {Limit: 60, Window: time.Minute},
		"reads":          {Limit: 300, Window: time.Minute},
	}
}

// RateLimitRules applies per-minute overrides to the defaults. Unknown groups
// and non-positive limits are ignored.
func RateLimitRules(perMinute map[string]int64) map[string]RateLimitRule {
	rules := DefaultRateLimitRules()
	for group, limit := range perMinute {
		if _, ok := rules[group]; ok && limit > 0 {
			rules[group] = RateLimitRule{Limit: limit, Window: time.Minute}
		}
	}
	return rules
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := extractIdentifier(c)
		key := fmt.Sprintf("%s:%s", identifier, group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys authenticated requests by member, the rest by IP.
func extractIdentifier(c *gin.Context) string {
	if m, ok := Member(c); ok {
		return m.Hex()
	}
	return c.ClientIP()
}
