package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ipdpulse/backend/core/stats"
	"github.com/ipdpulse/backend/core/user"
)

type statsApi struct {
	svc *stats.Service
}

func registerStatsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *stats.Service) {
	api := statsApi{svc: svc}
	g.GET("/stats", api.get, jwt, roleMiddleware(user.RoleAdmin))
}

func (api *statsApi) get(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}
