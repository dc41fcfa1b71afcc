package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ChartCast/internal/domain/models"
	"ChartCast/internal/usecase"
	xhttp "ChartCast/pkg/http"
	xlogger "ChartCast/pkg/logger"
)

// ChartHandler serves klines, their analysis and the pair catalog.
type ChartHandler struct {
	logger *xlogger.Logger
	chart  *usecase.ChartUseCase
}

func NewChartHandler(logger *xlogger.Logger, chart *usecase.ChartUseCase) *ChartHandler {
	return &ChartHandler{logger: logger, chart: chart}
}

func (h *ChartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/chart", h.Chart)
	g.GET("/analysis", h.Analysis)
	g.GET("/pairs", h.Pairs)
}

// Chart returns raw klines; the X-Data-Source header names the provider.
func (h *ChartHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, src, err := h.chart.Klines(c.Request().Context(), req.Symbol, req.Interval)
	if err != nil {
		h.logger.Error("chart usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Failed to load market data"))
	}
	c.Response().Header().Set("X-Data-Source", string(src))
	return xhttp.SuccessResponse(c, rows)
}

func (h *ChartHandler) Analysis(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.chart.Analyze(c.Request().Context(), req.Symbol, req.Interval)
	if err != nil {
		h.logger.Error("analysis usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Analysis failed"))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartHandler) Pairs(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusOK, models.Catalog{
		Pairs:      models.TradingPairs,
		Timeframes: models.Timeframes,
	})
}
