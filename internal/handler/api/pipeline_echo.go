package api

import (
	"time"

	models "SigPipe/internal/domain/models"
	"SigPipe/internal/usecase"
	pkgcache "SigPipe/pkg/cache"
	xhttp "SigPipe/pkg/http"
	xlogger "SigPipe/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PipelineEchoHandler exposes the signal pipeline over HTTP.
type PipelineEchoHandler struct {
	logger    *xlogger.Logger
	reporting *usecase.ReportingUseCase
	allocator *usecase.PortfolioAllocator
	pipeline  *usecase.DailyPipeline
	cache     pkgcache.Service
	cacheTTL  time.Duration
}

func NewPipelineEchoHandler(
	logger *xlogger.Logger,
	reporting *usecase.ReportingUseCase,
	allocator *usecase.PortfolioAllocator,
	pipeline *usecase.DailyPipeline,
	cache pkgcache.Service,
	cacheTTL time.Duration,
) *PipelineEchoHandler {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &PipelineEchoHandler{
		logger:    logger,
		reporting: reporting,
		allocator: allocator,
		pipeline:  pipeline,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

func (h *PipelineEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/allocate", h.Allocate)
	g.GET("/signals", h.Signals)
	g.GET("/accuracy", h.Accuracy)
	g.GET("/predictions", h.Predictions)
	g.POST("/pipeline/run", h.RunPipeline)
}

// Allocate weights candidate rows into portfolio positions.
func (h *PipelineEchoHandler) Allocate(c echo.Context) error {
	req := &models.AllocateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows := make([]models.AllocationInput, 0, len(req.Candidates))
	for _, r := range req.Candidates {
		rows = append(rows, models.AllocationInput{
			Symbol:         r.Symbol,
			Date:           r.Date,
			Probability:    r.Probability,
			Recommendation: r.Recommendation,
		})
	}

	res := h.allocator.Allocate(rows)
	return xhttp.SuccessResponse(c, res)
}

// Signals returns stored signals for a symbol and date range.
func (h *PipelineEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	from := xhttp.ParseTimeDefault(req.From, time.Time{})
	to := xhttp.ParseTimeDefault(req.To, time.Time{})

	sigs, err := h.reporting.GetSignals(c.Request().Context(), usecase.GetSignalsParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("signals query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, sigs, int64(len(sigs)))
}

// Accuracy returns evaluated accuracy records, cached briefly.
func (h *PipelineEchoHandler) Accuracy(c echo.Context) error {
	req := &models.AccuracyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	key := pkgcache.Key("accuracy", req.Symbol, req.From, req.To)
	if h.cache != nil {
		var cached []models.AccuracyRecord
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			return xhttp.ListResponse(c, cached, int64(len(cached)))
		}
	}

	from := xhttp.ParseTimeDefault(req.From, time.Time{})
	to := xhttp.ParseTimeDefault(req.To, time.Time{})

	recs, err := h.reporting.GetAccuracy(ctx, usecase.GetAccuracyParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
	})
	if err != nil {
		h.logger.Error("accuracy query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, key, recs, h.cacheTTL)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

// Predictions returns classifier outputs for a date, or the latest set.
func (h *PipelineEchoHandler) Predictions(c echo.Context) error {
	req := &models.PredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	date := xhttp.ParseTimeDefault(req.Date, time.Time{})
	preds, err := h.reporting.GetPredictions(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("predictions query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, preds, int64(len(preds)))
}

// RunPipeline triggers the daily batch and reports per-step results.
func (h *PipelineEchoHandler) RunPipeline(c echo.Context) error {
	req := &models.PipelineRunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.pipeline.Run(c.Request().Context(), req.Symbols)
	if h.cache != nil {
		// batch changed the underlying data; drop stale responses
		_ = h.cache.DeleteByPattern(c.Request().Context(), "accuracy*")
	}
	return xhttp.SuccessResponse(c, res)
}
