package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/jeninefer/commercial-view/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	ingestHandler *IngestHandler,
	arrearsHandler *ArrearsHandler,
	kpiHandler *KPIHandler,
	optimizerHandler *OptimizerHandler,
	alertHandler *AlertHandler,
	wsHandler *WebSocketHandler,
) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Ingest routes
	ingest := api.Group("/ingest")
	ingest.POST("/tape", ingestHandler.UploadTape)
	ingest.POST("/schedule", ingestHandler.UploadSchedule)
	ingest.POST("/payments", ingestHandler.UploadPayments)

	// Arrears routes
	arrears := api.Group("/arrears")
	arrears.POST("/recalculate", arrearsHandler.Recalculate)
	arrears.GET("", arrearsHandler.GetArrears)
	arrears.GET("/export", arrearsHandler.Export)
	arrears.GET("/:loanId", arrearsHandler.GetArrearsByLoan)

	// KPI routes
	kpi := api.Group("/kpi")
	kpi.GET("/summary", kpiHandler.GetSummary)
	kpi.GET("/buckets", kpiHandler.GetBuckets)
	kpi.GET("/concentration", kpiHandler.GetConcentration)

	// Disbursement optimization
	api.POST("/disbursements/optimize", optimizerHandler.Optimize)

	// Alert routes
	alerts := api.Group("/alerts")
	alerts.GET("", alertHandler.GetAlerts)
	alerts.PATCH("/:id/acknowledge", alertHandler.Acknowledge)

	// WebSocket endpoint authenticates via query token, not the JWT middleware
	e.GET("/ws", wsHandler.HandleWS)
}
