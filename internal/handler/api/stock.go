package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ContraTrack/internal/domain/models"
	domrepo "ContraTrack/internal/domain/repository"
	"ContraTrack/internal/service/metrics"
	"ContraTrack/internal/services/sentiment"
	"ContraTrack/internal/usecase"
	xhttp "ContraTrack/pkg/http"
	xlogger "ContraTrack/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisService is what the stock endpoints need from the analysis use case.
type AnalysisService interface {
	Document(ctx context.Context, symbol string) (*models.StockDocument, error)
	Analyze(ctx context.Context, symbol string, opts models.AnalysisOptions) (*models.AnalysisReport, error)
	History(ctx context.Context, symbol string, limit int) ([]models.AnalysisRun, error)
}

// StockHandler serves stock documents, analyses and call classification.
type StockHandler struct {
	logger   *xlogger.Logger
	analysis AnalysisService
	limit    echo.MiddlewareFunc
}

func NewStockHandler(logger *xlogger.Logger, analysis AnalysisService, limit echo.MiddlewareFunc) *StockHandler {
	return &StockHandler{logger: logger, analysis: analysis, limit: limit}
}

func (h *StockHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	if h.limit != nil {
		g.Use(h.limit)
	}
	g.GET("/stock/:symbol", h.Stock)
	g.GET("/stock/:symbol/analysis", h.Analysis)
	g.GET("/stock/:symbol/history", h.History)
	g.POST("/recommendations/classify", h.Classify)
}

func (h *StockHandler) Stock(c echo.Context) error {
	start := time.Now()
	defer metrics.Observe("stock", start)

	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("stock", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	doc, err := h.analysis.Document(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, "stock", req.Symbol, err)
	}
	return xhttp.SuccessResponse(c, doc)
}

func (h *StockHandler) Analysis(c echo.Context) error {
	start := time.Now()
	defer metrics.Observe("analysis", start)

	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("analysis", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	rep, err := h.analysis.Analyze(c.Request().Context(), req.Symbol, req.Options(c.QueryParams().Has("max_gap_days")))
	if err != nil {
		return h.fail(c, "analysis", req.Symbol, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, rep)
}

func (h *StockHandler) History(c echo.Context) error {
	start := time.Now()
	defer metrics.Observe("history", start)

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("history", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	runs, err := h.analysis.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "history", req.Symbol, err)
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}

func (h *StockHandler) Classify(c echo.Context) error {
	req := &models.ClassifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("classify", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, sentiment.Analyze(req.Text))
}

// fail maps use case errors onto AppErrors.
func (h *StockHandler) fail(c echo.Context, endpoint, symbol string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, domrepo.ErrNotFound):
		appErr = xhttp.NotFoundErrorf("no data for symbol %s", symbol)
	case errors.Is(err, usecase.ErrInvalidSymbol):
		appErr = xhttp.BadRequestErrorf("invalid symbol %q", symbol)
	case errors.Is(err, context.DeadlineExceeded):
		appErr = xhttp.InternalError("request timed out").WithError(err)
	default:
		h.logger.Error(fmt.Sprintf("%s usecase error", endpoint),
			xlogger.String("symbol", symbol),
			xlogger.Error(err),
		)
		appErr = xhttp.InternalErrorf("failed to load data for %s", symbol).WithError(err)
	}
	metrics.Fail(endpoint, appErr.Code)
	return xhttp.AppErrorResponse(c, appErr)
}
