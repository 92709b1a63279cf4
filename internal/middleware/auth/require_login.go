package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/markethub/backend/internal/service/token"
)

// RequireLogin authenticates the bearer token and puts userID/role
// into the request context.
func RequireLogin(ts *token.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := ts.ParseAccess(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if err := setUserContext(c, claims); err != nil {
				return err
			}
			return next(c)
		}
	}
}
