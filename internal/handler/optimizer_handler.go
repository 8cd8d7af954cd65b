package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/service"
)

// OptimizerHandler handles disbursement optimization HTTP requests
type OptimizerHandler struct {
	optimizerService *service.OptimizerService
}

// NewOptimizerHandler creates a new OptimizerHandler
func NewOptimizerHandler(optimizerService *service.OptimizerService) *OptimizerHandler {
	return &OptimizerHandler{optimizerService: optimizerService}
}

// OptimizeRequest is the body of POST /api/v1/disbursements/optimize
type OptimizeRequest struct {
	Requests []*service.DisbursementRequest `json:"requests"`
	Params   service.OptimizeParams         `json:"params"`
}

// Optimize handles POST /api/v1/disbursements/optimize
func (h *OptimizerHandler) Optimize(c echo.Context) error {
	var req OptimizeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.optimizerService.Optimize(req.Requests, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBudgetInvalid):
			return NewValidationError(c, "Invalid budget", []ValidationError{
				{Field: "params.budget", Message: "Budget must be positive"},
			})
		case errors.Is(err, service.ErrNoRequests):
			return NewValidationError(c, "No requests", []ValidationError{
				{Field: "requests", Message: "At least one disbursement request is required"},
			})
		default:
			log.Error().Err(err).Msg("Disbursement optimization failed")
			return NewInternalError(c, "Failed to optimize disbursements")
		}
	}

	return c.JSON(http.StatusOK, result)
}
