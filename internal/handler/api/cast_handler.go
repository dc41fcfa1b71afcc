package api

import (
	"github.com/labstack/echo/v4"

	"ChartCast/internal/domain/models"
	"ChartCast/internal/usecase"
	xhttp "ChartCast/pkg/http"
	xlogger "ChartCast/pkg/logger"
)

// CastHandler serves captioning, publishing, uploads and the cast history.
type CastHandler struct {
	logger  *xlogger.Logger
	caption *usecase.CaptionUseCase
	cast    *usecase.CastUseCase
	upload  *usecase.UploadUseCase
	history *usecase.HistoryUseCase
	limit   echo.MiddlewareFunc
}

// NewCastHandler builds the handler. limit guards the upstream-spending routes and may be nil.
func NewCastHandler(
	logger *xlogger.Logger,
	caption *usecase.CaptionUseCase,
	cast *usecase.CastUseCase,
	upload *usecase.UploadUseCase,
	history *usecase.HistoryUseCase,
	limit echo.MiddlewareFunc,
) *CastHandler {
	return &CastHandler{logger: logger, caption: caption, cast: cast, upload: upload, history: history, limit: limit}
}

func (h *CastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	var guarded []echo.MiddlewareFunc
	if h.limit != nil {
		guarded = append(guarded, h.limit)
	}
	g.POST("/ai", h.Caption, guarded...)
	g.POST("/cast", h.Cast, guarded...)
	g.POST("/upload", h.Upload)
	g.GET("/history", h.ListHistory)
	g.POST("/history", h.AppendHistory)
	g.DELETE("/history", h.ClearHistory)
}

type captionResponse struct {
	Text string `json:"text"`
}

func (h *CastHandler) Caption(c echo.Context) error {
	req := &models.CaptionHTTPRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	text, err := h.caption.Caption(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("caption usecase error", xlogger.String("pair", req.Pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Analysis currently unavailable."))
	}
	return xhttp.SuccessResponse(c, captionResponse{Text: text})
}

func (h *CastHandler) Cast(c echo.Context) error {
	req := &models.CastHTTPRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.cast.Cast(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("cast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Failed to cast"))
	}
	return xhttp.SuccessResponse(c, res)
}

// Upload stores the raw request body.
func (h *CastHandler) Upload(c echo.Context) error {
	req := &models.UploadRequest{}
	if verr := xhttp.ReadAndValidateQuery(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	blob, err := h.upload.Upload(c.Request().Context(), req.Filename, contentType, c.Request().Body)
	if err != nil {
		h.logger.Error("upload usecase error", xlogger.String("filename", req.Filename), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Upload failed"))
	}
	return xhttp.SuccessResponse(c, blob)
}

func (h *CastHandler) ListHistory(c echo.Context) error {
	items, err := h.history.List(c.Request().Context())
	if err != nil {
		h.logger.Error("history list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Failed to load history"))
	}
	return xhttp.ListResponse(c, items, int64(len(items)))
}

func (h *CastHandler) AppendHistory(c echo.Context) error {
	item := &models.CastHistoryItem{}
	if verr := xhttp.ReadAndValidateRequest(c, item); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.history.Append(c.Request().Context(), *item); err != nil {
		h.logger.Error("history append error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Failed to save history"))
	}
	return xhttp.CreatedResponse(c, item)
}

func (h *CastHandler) ClearHistory(c echo.Context) error {
	if err := h.history.Clear(c.Request().Context()); err != nil {
		h.logger.Error("history clear error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err, "Failed to clear history"))
	}
	return xhttp.NoContentResponse(c)
}
