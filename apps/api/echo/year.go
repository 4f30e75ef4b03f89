package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/year"
)

type yearApi struct {
	svc *year.Service
}

func registerYearAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *year.Service) {
	api := yearApi{svc: svc}

	yg := g.Group("/years")
	yg.GET("", api.query)
	yg.GET("/active", api.active)
	yg.GET("/:id", api.retrieve)

	// mutating endpoints require auth
	yg.POST("", api.create, jwt)
	yg.POST("/:id/activate", api.activate, jwt)
	yg.POST("/:id/transfer", api.transfer, jwt)
	yg.DELETE("/:id", api.destroy, jwt)
}

// Handlers

func (api *yearApi) create(ctx echo.Context) error {
	var data year.NewYear
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewYear")
	}

	yr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, yr)
}

func (api *yearApi) query(ctx echo.Context) error {
	years, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying years")
	}
	if years == nil {
		years = []year.Year{}
	}
	return ctx.JSON(http.StatusOK, years)
}

func (api *yearApi) active(ctx echo.Context) error {
	yr, err := api.svc.Active(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, yr)
}

func (api *yearApi) retrieve(ctx echo.Context) error {
	yr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, yr)
}

func (api *yearApi) activate(ctx echo.Context) error {
	yr, err := api.svc.Activate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, yr)
}

func (api *yearApi) transfer(ctx echo.Context) error {
	var data year.TransferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	data.DestinationYearID = ctx.Param("id")

	report, err := api.svc.Transfer(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *yearApi) destroy(ctx echo.Context) error {
	report, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DeletionResponse{Deleted: report, Total: report.Total()})
}

type DeletionResponse struct {
	Deleted year.DeletionReport `json:"deleted"`
	Total   int                 `json:"total"`
}
