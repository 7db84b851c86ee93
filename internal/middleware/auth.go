// Package middleware contains the Echo middleware chain: bearer-token
// authentication backed by the access cache.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/cache"
)

const tokenDataKey = "token_data"

// RequireAuth authenticates the Authorization bearer token through the
// resolver and stores the session descriptor in the request context.
func RequireAuth(resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return apperror.Unauthorized("Missing bearer token")
			}
			data, err := resolver.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}
			c.Set(tokenDataKey, data)
			return next(c)
		}
	}
}

// TokenData returns the session descriptor stored by RequireAuth. Calling
// it from an unprotected route is a programming error and panics.
func TokenData(c echo.Context) cache.SessionData {
	data, ok := c.Get(tokenDataKey).(cache.SessionData)
	if !ok {
		panic("middleware: TokenData called outside RequireAuth")
	}
	return data
}
