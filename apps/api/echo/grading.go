package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/grading"
)

type gradingApi struct {
	svc *grading.Service
}

func registerGradingAPI(g *echo.Group, _ echo.MiddlewareFunc, svc *grading.Service) {
	api := gradingApi{svc: svc}

	yg := g.Group("/years/:id")
	yg.GET("/stats/pass-fail", api.passFail)
	yg.GET("/stats/subjects", api.subjects)
	yg.GET("/students/:studentID/average", api.average)
}

// Handlers

func (api *gradingApi) passFail(ctx echo.Context) error {
	scope := grading.Filter{ClassIDs: ctx.QueryParams()["class_id"]}

	stats, err := api.svc.ClassPassFailStats(ctx.Request().Context(), ctx.Param("id"), scope)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *gradingApi) subjects(ctx echo.Context) error {
	scope := grading.Filter{ClassIDs: ctx.QueryParams()["class_id"]}
	periods := ctx.QueryParams()["period"]

	stats, err := api.svc.SubjectStatistics(ctx.Request().Context(), ctx.Param("id"), scope, periods...)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = []grading.SubjectStat{}
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *gradingApi) average(ctx echo.Context) error {
	periods := ctx.QueryParams()["period"]

	avg, graded, err := api.svc.WeightedAverage(ctx.Request().Context(), ctx.Param("studentID"), ctx.Param("id"), periods...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AverageResponse{Average: avg, Graded: graded})
}

type AverageResponse struct {
	Average float64 `json:"average"`
	Graded  bool    `json:"graded"`
}
