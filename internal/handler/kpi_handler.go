package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/service"
)

// DefaultTopBorrowers is how many borrowers the concentration report
// lists when the caller does not ask for a specific count.
const DefaultTopBorrowers = 10

// KPIHandler handles portfolio KPI HTTP requests
type KPIHandler struct {
	kpiService *service.KPIService
}

// NewKPIHandler creates a new KPIHandler
func NewKPIHandler(kpiService *service.KPIService) *KPIHandler {
	return &KPIHandler{kpiService: kpiService}
}

// GetSummary handles GET /api/v1/kpi/summary
func (h *KPIHandler) GetSummary(c echo.Context) error {
	summary, err := h.kpiService.Summary()
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute portfolio summary")
		return NewInternalError(c, "Failed to compute portfolio summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetBuckets handles GET /api/v1/kpi/buckets
func (h *KPIHandler) GetBuckets(c echo.Context) error {
	buckets, err := h.kpiService.Buckets()
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute delinquency buckets")
		return NewInternalError(c, "Failed to compute delinquency buckets")
	}
	return c.JSON(http.StatusOK, buckets)
}

// GetConcentration handles GET /api/v1/kpi/concentration
func (h *KPIHandler) GetConcentration(c echo.Context) error {
	topN := DefaultTopBorrowers
	if raw := c.QueryParam("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return NewValidationError(c, "Invalid top parameter", []ValidationError{
				{Field: "top", Message: "Must be a positive integer"},
			})
		}
		topN = parsed
	}

	report, err := h.kpiService.Concentration(topN)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute concentration report")
		return NewInternalError(c, "Failed to compute concentration report")
	}
	return c.JSON(http.StatusOK, report)
}
