package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/service"
)

// AlertHandler handles alert HTTP requests
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts handles GET /api/v1/alerts
func (h *AlertHandler) GetAlerts(c echo.Context) error {
	includeAcknowledged := c.QueryParam("includeAcknowledged") == "true"

	alerts, err := h.alertService.GetAlerts(includeAcknowledged)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list alerts")
		return NewInternalError(c, "Failed to list alerts")
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}
	return c.JSON(http.StatusOK, alerts)
}

// Acknowledge handles PATCH /api/v1/alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid alert ID", []ValidationError{
			{Field: "id", Message: "Must be a valid UUID"},
		})
	}

	alert, err := h.alertService.Acknowledge(id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlertNotFound):
			return NewNotFoundError(c, "Alert not found")
		case errors.Is(err, domain.ErrAlertAlreadyResolved):
			return NewConflictError(c, "Alert is already acknowledged")
		default:
			log.Error().Err(err).Str("alert_id", id.String()).Msg("Failed to acknowledge alert")
			return NewInternalError(c, "Failed to acknowledge alert")
		}
	}

	return c.JSON(http.StatusOK, alert)
}
