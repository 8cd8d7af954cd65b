package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/ingest"
	"github.com/jeninefer/commercial-view/internal/service"
	"github.com/jeninefer/commercial-view/internal/websocket"
)

// IngestHandler handles CSV upload requests for the three input files:
// the loan tape, the payment schedule, and the payment history.
type IngestHandler struct {
	portfolioService *service.PortfolioService
	publisher        websocket.EventPublisher
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(portfolioService *service.PortfolioService, publisher websocket.EventPublisher) *IngestHandler {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &IngestHandler{
		portfolioService: portfolioService,
		publisher:        publisher,
	}
}

// IngestResponse reports how an upload went. Skipped rows are reported,
// not fatal; one malformed line never rejects a whole file.
type IngestResponse struct {
	Kind    string            `json:"kind"`
	Loaded  int               `json:"loaded"`
	Skipped int               `json:"skipped"`
	Errors  []ingest.RowError `json:"errors,omitempty"`
}

// UploadSchedule handles POST /api/v1/ingest/schedule
func (h *IngestHandler) UploadSchedule(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded schedule")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	installments, rowErrors, err := ingest.LoadSchedule(src)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.portfolioService.ReplaceSchedule(installments); err != nil {
		log.Error().Err(err).Msg("Failed to store schedule")
		return NewInternalError(c, "Failed to store schedule")
	}

	return h.respond(c, "schedule", len(installments), rowErrors)
}

// UploadPayments handles POST /api/v1/ingest/payments
func (h *IngestHandler) UploadPayments(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded payments")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	payments, rowErrors, err := ingest.LoadPayments(src)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.portfolioService.ReplacePayments(payments); err != nil {
		log.Error().Err(err).Msg("Failed to store payments")
		return NewInternalError(c, "Failed to store payments")
	}

	return h.respond(c, "payments", len(payments), rowErrors)
}

// UploadTape handles POST /api/v1/ingest/tape
func (h *IngestHandler) UploadTape(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded tape")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	loans, rowErrors, err := ingest.LoadTape(src)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.portfolioService.ReplaceTape(loans); err != nil {
		log.Error().Err(err).Msg("Failed to store loan tape")
		return NewInternalError(c, "Failed to store loan tape")
	}

	return h.respond(c, "tape", len(loans), rowErrors)
}

func (h *IngestHandler) respond(c echo.Context, kind string, loaded int, rowErrors []ingest.RowError) error {
	resp := IngestResponse{
		Kind:    kind,
		Loaded:  loaded,
		Skipped: len(rowErrors),
		Errors:  rowErrors,
	}

	h.publisher.Publish(websocket.TopicSnapshots, websocket.IngestBatchLoaded(resp))

	log.Info().
		Str("kind", kind).
		Int("loaded", loaded).
		Int("skipped", len(rowErrors)).
		Msg("CSV batch ingested")

	return c.JSON(http.StatusOK, resp)
}
