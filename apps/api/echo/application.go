package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/teacherconnect/backend/core/application"
	"github.com/teacherconnect/backend/core/user"
)

type applicationApi struct {
	svc      *application.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *application.Service, userSvc *user.Service, validate *validator.Validate) {
	api := applicationApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	// job-scoped actions
	jg := g.Group("/jobs/:id", jwt, roleMiddleware(user.RoleEmployee))
	jg.POST("/apply", api.apply)
	jg.POST("/save", api.save)

	ag := g.Group("/applications", jwt)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/status", api.transition)
	ag.PUT("/:id/forward-interview", api.forwardInterview, adminMiddleware())
	ag.PUT("/:id/forward-offer", api.forwardOffer, adminMiddleware())
}

// Handlers

func (api *applicationApi) apply(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Apply(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) save(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Save(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) query(ctx echo.Context) error {
	filter := new(application.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []application.Application{})
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	apps, err := api.svc.Filter(ctx.Request().Context(), ctxUsr, *filter)
	if err != nil {
		return err
	}
	if apps == nil {
		apps = []application.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) transition(ctx echo.Context) error {
	var data TransitionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Transition(ctx.Request().Context(), ctxUsr, ctx.Param("id"), application.Status(data.Status))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) forwardInterview(ctx echo.Context) error {
	var data application.InterviewDetails
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InterviewDetails")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.ForwardInterview(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) forwardOffer(ctx echo.Context) error {
	var data ForwardOfferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForwardOfferRequest")
	}
	if err := data.OfferDetails.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.ForwardOffer(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data.OfferDetails, data.LetterURL)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

type (
	TransitionRequest struct {
		Status string `json:"status" validate:"required"`
	}

	ForwardOfferRequest struct {
		application.OfferDetails
		LetterURL string `json:"letter_url" validate:"omitempty,url"`
	}
)

func (tr *TransitionRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(tr)
}
