// Package middleware holds the echo middleware shared by the route groups:
// bearer authentication, role gates, the Redis response cache and the Redis
// rate limiter.
package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/model"
)

// Context keys set by Protect.
const (
	AccountKey = "account"
	UserIDKey  = "user_id"
)

// Authenticator resolves a raw bearer token. *service.AuthService
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.Account, error)
	Authorize(acc *model.Account, allowed model.RoleSet) error
}

// Protect requires a valid bearer token and stores the resolved account in
// the context.
func Protect(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acc, err := auth.Authenticate(c.Request().Context(), bearerToken(c))
			if err != nil {
				return err
			}
			c.Set(AccountKey, acc)
			c.Set(UserIDKey, acc.ID)
			return next(c)
		}
	}
}

// RequireRole must run after Protect.
func RequireRole(auth Authenticator, roles ...model.Role) echo.MiddlewareFunc {
	allowed := model.Roles(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.Authorize(CurrentAccount(c), allowed); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// CurrentAccount returns the account stored by Protect, or nil.
func CurrentAccount(c echo.Context) *model.Account {
	acc, _ := c.Get(AccountKey).(*model.Account)
	return acc
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

