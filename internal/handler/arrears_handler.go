package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/repository/storage"
	"github.com/jeninefer/commercial-view/internal/service"
)

// ArrearsHandler handles arrears snapshot HTTP requests
type ArrearsHandler struct {
	portfolioService *service.PortfolioService
	reportRepo       storage.ReportRepository // nil when storage is not configured
}

// NewArrearsHandler creates a new ArrearsHandler
func NewArrearsHandler(portfolioService *service.PortfolioService, reportRepo storage.ReportRepository) *ArrearsHandler {
	return &ArrearsHandler{
		portfolioService: portfolioService,
		reportRepo:       reportRepo,
	}
}

// RecalculateRequest carries the optional overrides for one calculator run.
type RecalculateRequest struct {
	ReferenceDate string `json:"referenceDate"` // YYYY-MM-DD; empty means today
	Threshold     int    `json:"threshold"`     // days; 0 means the configured default
}

// RecalculateResponse summarizes a completed calculator run.
type RecalculateResponse struct {
	ReferenceDate time.Time               `json:"referenceDate"`
	Threshold     int                     `json:"threshold"`
	LoanCount     int                     `json:"loanCount"`
	Records       []*domain.ArrearsRecord `json:"records"`
}

// Recalculate handles POST /api/v1/arrears/recalculate
func (h *ArrearsHandler) Recalculate(c echo.Context) error {
	var req RecalculateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var referenceDate time.Time
	if req.ReferenceDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ReferenceDate)
		if err != nil {
			return NewValidationError(c, "Invalid reference date", []ValidationError{
				{Field: "referenceDate", Message: "Must be formatted YYYY-MM-DD"},
			})
		}
		referenceDate = parsed
	}

	if req.Threshold < 0 {
		return NewValidationError(c, "Invalid threshold", []ValidationError{
			{Field: "threshold", Message: "Must not be negative"},
		})
	}

	records, err := h.portfolioService.Recalculate(referenceDate, req.Threshold)
	if err != nil {
		log.Error().Err(err).Msg("Arrears recalculation failed")
		return NewInternalError(c, "Failed to recalculate arrears")
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = h.portfolioService.DefaultThreshold()
	}
	resolvedRef := referenceDate
	if len(records) > 0 {
		resolvedRef = records[0].ReferenceDate
	}

	return c.JSON(http.StatusOK, RecalculateResponse{
		ReferenceDate: resolvedRef,
		Threshold:     threshold,
		LoanCount:     len(records),
		Records:       records,
	})
}

// GetArrears handles GET /api/v1/arrears
func (h *ArrearsHandler) GetArrears(c echo.Context) error {
	records, err := h.portfolioService.GetArrears()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load arrears snapshot")
		return NewInternalError(c, "Failed to load arrears snapshot")
	}
	if records == nil {
		records = []*domain.ArrearsRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// GetArrearsByLoan handles GET /api/v1/arrears/:loanId
func (h *ArrearsHandler) GetArrearsByLoan(c echo.Context) error {
	loanID := c.Param("loanId")
	if loanID == "" {
		return NewValidationError(c, "Loan ID is required", nil)
	}

	record, err := h.portfolioService.GetArrearsByLoan(loanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "No arrears record for loan "+loanID)
		}
		log.Error().Err(err).Str("loan_id", loanID).Msg("Failed to load arrears record")
		return NewInternalError(c, "Failed to load arrears record")
	}
	return c.JSON(http.StatusOK, record)
}

// Export handles GET /api/v1/arrears/export. The snapshot is rendered as
// CSV and, when report storage is configured, archived there as well.
func (h *ArrearsHandler) Export(c echo.Context) error {
	records, err := h.portfolioService.GetArrears()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load arrears snapshot for export")
		return NewInternalError(c, "Failed to load arrears snapshot")
	}

	body, err := renderArrearsCSV(records)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render arrears export")
		return NewInternalError(c, "Failed to render export")
	}

	if h.reportRepo != nil {
		objectPath := storage.GenerateObjectPath("arrears", time.Now(), ".csv")
		if _, err := h.reportRepo.Upload(c.Request().Context(), objectPath,
			bytes.NewReader(body), "text/csv", int64(len(body))); err != nil {
			// Archiving is best effort; the caller still gets the file
			log.Warn().Err(err).Str("object_path", objectPath).Msg("Failed to archive arrears export")
		} else {
			url, err := h.reportRepo.GeneratePresignedURL(c.Request().Context(), objectPath, 15*time.Minute)
			if err == nil {
				c.Response().Header().Set("X-Report-URL", url)
			}
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="arrears.csv"`)
	return c.Blob(http.StatusOK, "text/csv", body)
}

func renderArrearsCSV(records []*domain.ArrearsRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"loan_id", "past_due_amount", "cumulative_gap", "days_past_due",
		"first_arrears_date", "last_payment_date", "last_due_date", "is_default", "reference_date"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	formatDate := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}

	for _, rec := range records {
		row := []string{
			rec.LoanID,
			rec.PastDueAmount.String(),
			rec.CumulativeGap.String(),
			strconv.Itoa(rec.DaysPastDue),
			formatDate(rec.FirstArrearsDate),
			formatDate(rec.LastPaymentDate),
			formatDate(rec.LastDueDate),
			strconv.FormatBool(rec.IsDefault),
			rec.ReferenceDate.Format("2006-01-02"),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
