package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"clinic-api/internal/auth"
	"clinic-api/internal/policy"
)

const actorKey = "actor"

// Auth validates the bearer token and stashes the caller on the echo
// context for handlers and role guards downstream.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
			}
			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
			}
			c.Set(actorKey, policy.Actor{ID: claims.UserID, Role: claims.Role})
			return next(c)
		}
	}
}

// Actor returns the authenticated caller. Zero value when the route is
// not behind Auth.
func Actor(c echo.Context) policy.Actor {
	a, _ := c.Get(actorKey).(policy.Actor)
	return a
}

// SetActor is used by tests to simulate an authenticated request.
func SetActor(c echo.Context, a policy.Actor) {
	c.Set(actorKey, a)
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Actor(c).Role] {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}
