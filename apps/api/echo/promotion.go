package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/promotion"
)

type promotionApi struct {
	svc *promotion.Service
}

func registerPromotionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *promotion.Service) {
	api := promotionApi{svc: svc}

	yg := g.Group("/years/:id")
	yg.GET("/promotion-rules", api.query)
	yg.POST("/promotion-rules", api.create, jwt)
	yg.GET("/students/:studentID/outcome", api.outcome)
}

// Handlers

func (api *promotionApi) create(ctx echo.Context) error {
	var data promotion.NewRule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRule")
	}
	data.AcademicYearID = ctx.Param("id")

	rule, err := api.svc.CreateRule(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rule)
}

func (api *promotionApi) query(ctx echo.Context) error {
	rules, err := api.svc.Rules(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if rules == nil {
		rules = []promotion.Rule{}
	}
	return ctx.JSON(http.StatusOK, rules)
}

func (api *promotionApi) outcome(ctx echo.Context) error {
	res, err := api.svc.ComputeOutcome(ctx.Request().Context(), ctx.Param("studentID"), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
