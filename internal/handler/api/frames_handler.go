package api

import (
	"github.com/labstack/echo/v4"

	"ChartCast/internal/domain/models"
	"ChartCast/internal/service/frames"
	xhttp "ChartCast/pkg/http"
	xlogger "ChartCast/pkg/logger"
)

// FramesHandler serves the Farcaster frame page. Frame buttons POST back, so
// both methods render the same page.
type FramesHandler struct {
	logger   *xlogger.Logger
	renderer *frames.Renderer
}

func NewFramesHandler(logger *xlogger.Logger, renderer *frames.Renderer) *FramesHandler {
	return &FramesHandler{logger: logger, renderer: renderer}
}

func (h *FramesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/frames", h.Frame)
	g.POST("/frames", h.Frame)
}

func (h *FramesHandler) Frame(c echo.Context) error {
	req := &models.FrameRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	page, err := h.renderer.Render(req.Pair, req.Interval, req.Img)
	if err != nil {
		h.logger.Error("frame render error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Failed to render frame"))
	}
	return xhttp.HTMLResponse(c, string(page))
}
