package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/notice"
	"github.com/ipdpulse/backend/core/user"
)

type noticeApi struct {
	svc      *notice.Service
	groupSvc *group.Service
	validate *validator.Validate
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notice.Service, groupSvc *group.Service, validate *validator.Validate) {
	api := noticeApi{
		svc:      svc,
		groupSvc: groupSvc,
		validate: validate,
	}

	ng := g.Group("/notices", jwt)
	ng.POST("", api.create, roleMiddleware(user.RoleMentor))
	ng.PUT("/:id/pin", api.pin, roleMiddleware(user.RoleMentor))

	g.GET("/groups/:id/notices", api.listForGroup, jwt,
		roleMiddleware(user.RoleStudent, user.RoleMentor, user.RoleAdmin))
}

// Handlers

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.svc.Post(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noticeApi) pin(ctx echo.Context) error {
	var data PinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PinRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.svc.Pin(ctx.Request().Context(), ctx.Param("id"), data.Pinned, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noticeApi) listForGroup(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	groupID := ctx.Param("id")

	// admins may read any group's notices; everyone else must belong
	if claims.Role != user.RoleAdmin {
		ok, err := api.groupSvc.Belongs(reqCtx, groupID, claims.Subject)
		if err != nil {
			return errors.Wrap(err, "checking group membership")
		}
		if !ok {
			return group.ErrNotMember
		}
	}

	notices, err := api.svc.ListForGroup(reqCtx, groupID)
	if err != nil {
		return err
	}
	if notices == nil {
		notices = []notice.Notice{}
	}
	return ctx.JSON(http.StatusOK, notices)
}

type PinRequest struct {
	Pinned bool `json:"pinned"`
}
