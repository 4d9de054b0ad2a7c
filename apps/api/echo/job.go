package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core/job"
	"github.com/teacherconnect/backend/core/user"
)

type jobApi struct {
	svc      *job.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerJobAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *job.Service, userSvc *user.Service, validate *validator.Validate) {
	api := jobApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	jg := g.Group("/jobs", jwt)
	jg.POST("", api.create)
	jg.GET("", api.query)
	jg.GET("/:id", api.retrieve)
	jg.PUT("/:id", api.update)
	jg.PUT("/:id/manage", api.manage)
	jg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *jobApi) create(ctx echo.Context) error {
	var data job.NewJob
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewJob")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	j, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, j)
}

func (api *jobApi) query(ctx echo.Context) error {
	filter := new(job.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []job.Job{})
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	jobs, err := api.svc.Filter(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []job.Job{}
	}
	return ctx.JSON(http.StatusOK, jobs)
}

func (api *jobApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	j, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *jobApi) update(ctx echo.Context) error {
	var data job.UpdateJob
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateJob")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	orig, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	j, err := api.svc.Update(ctx.Request().Context(), ctxUsr, orig.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *jobApi) manage(ctx echo.Context) error {
	var data ManageJobRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManageJobRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	j, err := api.svc.Manage(ctx.Request().Context(), ctxUsr, ctx.Param("id"), job.ManageAction(data.Action))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *jobApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type ManageJobRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject close"`
}

func (mr *ManageJobRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(mr)
}
