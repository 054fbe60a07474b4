package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/common/tenant"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ScopeKey is the context key for storing the caller's tenant scope
	ScopeKey ContextKey = "tenant_scope"
)

// ExtractTenant builds the caller's tenant scope from the identity headers
// injected by the external verifier:
//
//	X-Tenant-ID:    verified tenant identifier (required)
//	X-Token-Expiry: unix seconds; requests past expiry are rejected
//
// Token verification itself happens upstream; this middleware only consumes
// the verified result. Every route behind it can rely on a bound scope.
func ExtractTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := c.Request().Header.Get("X-Tenant-ID")
			if tenantID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "X-Tenant-ID header is required",
				})
			}

			if expiry := c.Request().Header.Get("X-Token-Expiry"); expiry != "" {
				unix, err := strconv.ParseInt(expiry, 10, 64)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, map[string]interface{}{
						"error": "invalid X-Token-Expiry header",
					})
				}
				if time.Now().After(time.Unix(unix, 0)) {
					return c.JSON(http.StatusUnauthorized, map[string]interface{}{
						"error": "token expired",
					})
				}
			}

			scope, err := tenant.NewScope(tenantID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "invalid tenant identity",
				})
			}

			c.Set(string(ScopeKey), scope)
			return next(c)
		}
	}
}

// GetScope retrieves the tenant scope from the request context.
// The second return is false when no scope was bound.
func GetScope(c echo.Context) (tenant.Scope, bool) {
	value := c.Get(string(ScopeKey))
	if value == nil {
		return tenant.Scope{}, false
	}

	scope, ok := value.(tenant.Scope)
	return scope, ok && scope.Valid()
}

// RequireScope ensures a bound tenant scope exists in context.
// Returns a 401 error if not found.
func RequireScope(c echo.Context) (tenant.Scope, error) {
	scope, ok := GetScope(c)
	if !ok {
		return tenant.Scope{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return scope, nil
}
