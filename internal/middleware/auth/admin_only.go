package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/markethub/backend/internal/models"
	"github.com/markethub/backend/internal/service/token"
)

// RequireRole authenticates the caller and rejects anyone without the
// required role.
func RequireRole(ts *token.TokenService, role string) echo.MiddlewareFunc {
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

			if c.Get("role") != role {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		}
	}
}

func AdminOnly(ts *token.TokenService) echo.MiddlewareFunc {
	return RequireRole(ts, models.RoleAdmin)
}
