package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/common/ratelimit"
	"github.com/clipvault/clipvault/common/tenant"
)

// GlobalRateLimit checks the service-wide request limit.
// Limit failures fail open: availability over strictness.
func GlobalRateLimit(limiter *ratelimit.RateLimiter, limit int64, windowSec int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := limiter.CheckGlobalLimit(c.Request().Context(), limit, windowSec)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "global_rate_limit_exceeded",
					"message": "Service is experiencing high load. Please try again later.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}

// TenantRateLimit checks per-tenant request limits. It reads the scope bound
// by the identity middleware; requests without a scope pass through and get
// rejected by authentication instead.
func TenantRateLimit(limiter *ratelimit.RateLimiter, limit int64, windowSec int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope, ok := c.Get("tenant_scope").(tenant.Scope)
			if !ok || !scope.Valid() {
				return next(c)
			}

			result, err := limiter.CheckTenantLimit(c.Request().Context(), scope.TenantID(), limit, windowSec)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "tenant_rate_limit_exceeded",
					"message": "You have exceeded your request quota. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
