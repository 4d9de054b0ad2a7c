package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core/profile"
	"github.com/teacherconnect/backend/core/user"
)

type profileApi struct {
	svc      *profile.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *profile.Service, userSvc *user.Service, validate *validator.Validate) {
	api := profileApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	pg := g.Group("/profiles", jwt)
	pg.GET("/employer/:id", api.retrieveEmployer)
	pg.PUT("/employer/:id", api.updateEmployer)
	pg.GET("/college/:id", api.retrieveCollege)
	pg.PUT("/college/:id", api.updateCollege)
}

// resolveUserID expands the "me" alias to the caller's own ID.
func (api *profileApi) resolveUserID(ctx echo.Context, ctxUsr user.User) string {
	id := ctx.Param("id")
	if id == "me" {
		return ctxUsr.ID
	}
	return id
}

// Handlers

func (api *profileApi) retrieveEmployer(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.GetEmployer(ctx.Request().Context(), ctxUsr, api.resolveUserID(ctx, ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) updateEmployer(ctx echo.Context) error {
	var data profile.UpdateEmployerProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEmployerProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.UpdateEmployer(ctx.Request().Context(), ctxUsr, api.resolveUserID(ctx, ctxUsr), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) retrieveCollege(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.GetCollege(ctx.Request().Context(), ctxUsr, api.resolveUserID(ctx, ctxUsr))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) updateCollege(ctx echo.Context) error {
	var data profile.UpdateCollegeProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCollegeProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.UpdateCollege(ctx.Request().Context(), ctxUsr, api.resolveUserID(ctx, ctxUsr), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
