package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/task"
	"github.com/ipdpulse/backend/core/user"
)

type taskApi struct {
	svc      *task.Service
	groupSvc *group.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *task.Service, groupSvc *group.Service, validate *validator.Validate) {
	api := taskApi{
		svc:      svc,
		groupSvc: groupSvc,
		validate: validate,
	}

	tg := g.Group("/tasks", jwt)
	tg.POST("", api.create, roleMiddleware(user.RoleMentor))
	tg.GET("/mine", api.mine, roleMiddleware(user.RoleStudent))
	tg.POST("/:id/submissions", api.submit, roleMiddleware(user.RoleStudent))

	sg := g.Group("/submissions", jwt)
	sg.GET("/mine", api.mySubmissions, roleMiddleware(user.RoleStudent))
	sg.GET("/task/:id", api.taskSubmissions, roleMiddleware(user.RoleMentor))
	sg.PUT("/:id/grade", api.grade, roleMiddleware(user.RoleMentor))
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()

	// mentors may only assign tasks within their own groups
	if data.GroupID != "" {
		ok, err := api.groupSvc.Belongs(reqCtx, data.GroupID, claims.Subject)
		if err != nil {
			return errors.Wrap(err, "checking group mentorship")
		}
		if !ok {
			return group.ErrNotMember
		}
	}

	t, err := api.svc.Assign(reqCtx, data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tasks, err := api.svc.QueryByAssignee(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying tasks by assignee")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	src, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	comment := ctx.FormValue("comment")
	ns := task.NewSubmission{
		TaskID:  ctx.Param("id"),
		Comment: null.NewString(comment, comment != ""),
	}
	f := task.SubmissionFile{
		Name:    fileHdr.Filename,
		Size:    fileHdr.Size,
		Content: src,
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ns, claims.Subject, f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *taskApi) mySubmissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	subs, err := api.svc.SubmissionsByStudent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying submissions by student")
	}
	if subs == nil {
		subs = []task.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *taskApi) taskSubmissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	t, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	// only the group's mentors may review its submissions
	ok, err := api.groupSvc.Belongs(reqCtx, t.GroupID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "checking group mentorship")
	}
	if !ok {
		return group.ErrNotMember
	}

	subs, err := api.svc.SubmissionsByTask(reqCtx, t.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions by task")
	}
	if subs == nil {
		subs = []task.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *taskApi) grade(ctx echo.Context) error {
	var data task.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	sub, err := api.svc.GetSubmission(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	// only the group's mentors may grade its submissions
	ok, err := api.groupSvc.Belongs(reqCtx, sub.GroupID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "checking group mentorship")
	}
	if !ok {
		return group.ErrNotMember
	}

	graded, err := api.svc.Grade(reqCtx, sub.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, graded)
}
