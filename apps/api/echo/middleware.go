package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core/user"
)

// roleMiddleware gates a route to the allowed roles:
// no valid claims -> 401; role not allowed -> 403 carrying the caller's own
// dashboard path; unknown roles fail closed.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !user.ValidRole(claims.Role) {
				return errHttpForbidden
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}

			usr := user.User{Role: claims.Role}
			return echo.NewHTTPError(http.StatusForbidden, echo.Map{
				"error":          "permission denied",
				"dashboard_path": usr.DashboardPath(),
			})
		}
	}
}
