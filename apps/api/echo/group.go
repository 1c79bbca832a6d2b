package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/task"
	"github.com/ipdpulse/backend/core/user"
)

type groupApi struct {
	svc      *group.Service
	taskSvc  *task.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *group.Service, taskSvc *task.Service, validate *validator.Validate) {
	api := groupApi{
		svc:      svc,
		taskSvc:  taskSvc,
		validate: validate,
	}

	gg := g.Group("/groups", jwt)
	gg.POST("", api.create, roleMiddleware(user.RoleMentor))
	gg.POST("/join", api.join, roleMiddleware(user.RoleStudent))
	gg.POST("/leave", api.leave, roleMiddleware(user.RoleStudent))
	gg.GET("/mine", api.mine, roleMiddleware(user.RoleStudent, user.RoleMentor))
	gg.GET("/:id", api.retrieve, roleMiddleware(user.RoleStudent, user.RoleMentor, user.RoleAdmin))
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grp, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) join(ctx echo.Context) error {
	var data JoinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grp, err := api.svc.Join(ctx.Request().Context(), data.Code, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) leave(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.svc.Leave(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "leaving group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	if claims.Role == user.RoleMentor {
		groups, err := api.svc.MineMentor(reqCtx, claims.Subject)
		if err != nil {
			return err
		}
		if groups == nil {
			groups = []group.Group{}
		}
		return ctx.JSON(http.StatusOK, groups)
	}

	grp, err := api.svc.MineStudent(reqCtx, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	groupID := ctx.Param("id")

	// admins may inspect any group; everyone else must belong to it
	if claims.Role != user.RoleAdmin {
		ok, err := api.svc.Belongs(reqCtx, groupID, claims.Subject)
		if err != nil {
			return errors.Wrap(err, "checking group membership")
		}
		if !ok {
			return group.ErrNotMember
		}
	}

	grp, err := api.svc.Detail(reqCtx, groupID)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	tasks, err := api.taskSvc.QueryByGroup(reqCtx, groupID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying group tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, GroupDetailResponse{Group: grp, Tasks: tasks})
}

type (
	JoinRequest struct {
		Code string `json:"code" validate:"required"`
	}

	GroupDetailResponse struct {
		group.Group
		Tasks []task.Task `json:"tasks"`
	}
)
