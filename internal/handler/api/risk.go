package api

import (
	"time"

	models "StakeWatch/internal/domain/models"
	"StakeWatch/internal/service/metrics"
	"StakeWatch/internal/service/ratelimit"
	"StakeWatch/internal/usecase"
	xhttp "StakeWatch/pkg/http"
	xlogger "StakeWatch/pkg/logger"
	xutil "StakeWatch/pkg/util"

	"github.com/labstack/echo/v4"
)

// RiskEchoHandler exposes the read-only risk API. Handlers stay envelope-thin:
// caching, dedup and fail-safe behavior all live in the engine.
type RiskEchoHandler struct {
	logger *xlogger.Logger
	engine *usecase.RiskEngine
	rl     *ratelimit.Limiter
}

func NewRiskEchoHandler(logger *xlogger.Logger, engine *usecase.RiskEngine) *RiskEchoHandler {
	metrics.Register()
	return &RiskEchoHandler{logger: logger, engine: engine, rl: ratelimit.New()}
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/risk")
	g.GET("/metrics", h.Metrics)
	g.GET("/alerts", h.Alerts)
	g.GET("/action", h.Action)
	g.GET("/history", h.History)
}

func (h *RiskEchoHandler) Metrics(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.RiskAPILatency.WithLabelValues("metrics").Observe(time.Since(start).Seconds()) }()

	req := &models.RiskMetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	addr := xutil.NormalizeAddress(req.Address)
	if !h.rl.Allow(c.RealIP()+":metrics", 10, 5) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", 429))
	}
	if req.Refresh {
		h.engine.Invalidate(addr)
	}

	res, err := h.engine.ComputeRiskMetrics(c.Request().Context(), addr)
	if err != nil {
		metrics.RiskAPIErrors.WithLabelValues("metrics").Inc()
		h.logger.Error("risk metrics error", xlogger.String("user", addr), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) Alerts(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.RiskAPILatency.WithLabelValues("alerts").Observe(time.Since(start).Seconds()) }()

	req := &models.RiskAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	addr := xutil.NormalizeAddress(req.Address)
	if !h.rl.Allow(c.RealIP()+":alerts", 10, 5) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "too many requests", 429))
	}

	res, err := h.engine.ComputeRiskAlerts(c.Request().Context(), addr)
	if err != nil {
		metrics.RiskAPIErrors.WithLabelValues("alerts").Inc()
		h.logger.Error("risk alerts error", xlogger.String("user", addr), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *RiskEchoHandler) Action(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.RiskAPILatency.WithLabelValues("action").Observe(time.Since(start).Seconds()) }()

	req := &models.RiskActionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	addr := xutil.NormalizeAddress(req.Address)

	profile := models.RiskProfile{
		MaxRiskScore:           100,
		WarningThreshold:       req.Warning,
		RebalanceThreshold:     req.Rebalance,
		EmergencyExitThreshold: req.Emergency,
	}
	action, m, err := h.engine.RecommendAction(c.Request().Context(), addr, profile)
	if err != nil {
		metrics.RiskAPIErrors.WithLabelValues("action").Inc()
		h.logger.Error("risk action error", xlogger.String("user", addr), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"action":  action,
		"score":   m.OverallRiskScore,
		"level":   m.RiskLevel,
		"profile": profile,
	})
}

func (h *RiskEchoHandler) History(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.RiskAPILatency.WithLabelValues("history").Observe(time.Since(start).Seconds()) }()

	req := &models.RiskHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	addr := xutil.NormalizeAddress(req.Address)

	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now().UTC())
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.Add(-30*24*time.Hour))
	if from.After(to) {
		return xhttp.BadRequestResponse(c, "from must be <= to")
	}

	res, err := h.engine.History(c.Request().Context(), addr, from, to, req.Limit)
	if err != nil {
		metrics.RiskAPIErrors.WithLabelValues("history").Inc()
		h.logger.Error("risk history error", xlogger.String("user", addr), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"user":   addr,
		"from":   from,
		"to":     to,
		"count":  len(res),
		"points": res,
	})
}
