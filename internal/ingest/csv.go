package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RowError records one skipped row of an otherwise successful load.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Column aliases seen across the loan-tape sources. Headers are matched
// case-insensitively after trimming; aliasing stays here so the calculator
// only ever sees normalized records.
var (
	loanIDAliases      = []string{"loan_id", "prestamo_id", "id_prestamo", "loan"}
	dueDateAliases     = []string{"due_date", "fecha_vencimiento", "vencimiento"}
	amountDueAliases   = []string{"amount_due", "monto", "monto_cuota", "amount"}
	paymentDateAliases = []string{"payment_date", "fecha_pago", "pago"}
	amountPaidAliases  = []string{"amount_paid", "monto_pagado", "amount"}
	borrowerAliases    = []string{"borrower", "cliente", "client_name"}
	sectorAliases      = []string{"sector", "industria"}
	productAliases     = []string{"product", "producto"}
	aprAliases         = []string{"apr", "tasa_anual", "annual_rate"}
	disbursedAliases   = []string{"disbursed_amount", "monto_desembolsado", "principal"}
	outstandingAliases = []string{"outstanding_principal", "saldo", "outstanding"}
	originationAliases = []string{"origination_date", "fecha_origen", "fecha_desembolso"}
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "02/01/2006"}

// header maps normalized column names to their index in the CSV header row.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, nil
}

// column resolves the first matching alias, or -1 if none is present.
func (h header) column(aliases []string) int {
	for _, alias := range aliases {
		if idx, ok := h[alias]; ok {
			return idx
		}
	}
	return -1
}

func (h header) require(field string, aliases []string) (int, error) {
	idx := h.column(aliases)
	if idx < 0 {
		return -1, fmt.Errorf("missing required column %q (accepted: %s)", field, strings.Join(aliases, ", "))
	}
	return idx, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return util.TruncateToDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric amount %q", raw)
	}
	return d, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr
}

// skip logs one bad row and records it; a handful of bad rows never aborts
// a portfolio-wide load.
func skip(source string, line int, reason string, rowErrors []RowError) []RowError {
	log.Warn().Str("source", source).Int("line", line).Str("reason", reason).Msg("Skipping malformed row")
	return append(rowErrors, RowError{Line: line, Reason: reason})
}

// LoadSchedule reads scheduled installments from CSV. It returns the
// parsed rows plus the rows skipped for data-quality reasons; err is
// non-nil only when the stream itself is unreadable.
func LoadSchedule(r io.Reader) ([]*domain.ScheduledInstallment, []RowError, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, nil, err
	}
	idCol, err := h.require("loan_id", loanIDAliases)
	if err != nil {
		return nil, nil, err
	}
	dateCol, err := h.require("due_date", dueDateAliases)
	if err != nil {
		return nil, nil, err
	}
	amountCol, err := h.require("amount_due", amountDueAliases)
	if err != nil {
		return nil, nil, err
	}

	var installments []*domain.ScheduledInstallment
	var rowErrors []RowError
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = skip("schedule", line, err.Error(), rowErrors)
			continue
		}
		inst, reason := parseInstallment(row, idCol, dateCol, amountCol)
		if reason != "" {
			rowErrors = skip("schedule", line, reason, rowErrors)
			continue
		}
		installments = append(installments, inst)
	}
	return installments, rowErrors, nil
}

func parseInstallment(row []string, idCol, dateCol, amountCol int) (*domain.ScheduledInstallment, string) {
	if len(row) <= idCol || len(row) <= dateCol || len(row) <= amountCol {
		return nil, "row has too few columns"
	}
	loanID := strings.TrimSpace(row[idCol])
	if loanID == "" {
		return nil, "empty loan ID"
	}
	dueDate, err := parseDate(row[dateCol])
	if err != nil {
		return nil, err.Error()
	}
	amount, err := parseAmount(row[amountCol])
	if err != nil {
		return nil, err.Error()
	}
	return &domain.ScheduledInstallment{LoanID: loanID, DueDate: dueDate, AmountDue: amount}, ""
}

// LoadPayments reads the payment history from CSV with the same
// skip-and-count policy as LoadSchedule.
func LoadPayments(r io.Reader) ([]*domain.Payment, []RowError, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, nil, err
	}
	idCol, err := h.require("loan_id", loanIDAliases)
	if err != nil {
		return nil, nil, err
	}
	dateCol, err := h.require("payment_date", paymentDateAliases)
	if err != nil {
		return nil, nil, err
	}
	amountCol, err := h.require("amount_paid", amountPaidAliases)
	if err != nil {
		return nil, nil, err
	}

	var payments []*domain.Payment
	var rowErrors []RowError
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = skip("payments", line, err.Error(), rowErrors)
			continue
		}
		if len(row) <= idCol || len(row) <= dateCol || len(row) <= amountCol {
			rowErrors = skip("payments", line, "row has too few columns", rowErrors)
			continue
		}
		loanID := strings.TrimSpace(row[idCol])
		if loanID == "" {
			rowErrors = skip("payments", line, "empty loan ID", rowErrors)
			continue
		}
		paymentDate, err := parseDate(row[dateCol])
		if err != nil {
			rowErrors = skip("payments", line, err.Error(), rowErrors)
			continue
		}
		amount, err := parseAmount(row[amountCol])
		if err != nil {
			rowErrors = skip("payments", line, err.Error(), rowErrors)
			continue
		}
		payments = append(payments, &domain.Payment{LoanID: loanID, PaymentDate: paymentDate, AmountPaid: amount})
	}
	return payments, rowErrors, nil
}

// LoadTape reads loan-tape rows (static loan attributes) from CSV.
// Only loan_id is strictly required; missing optional columns degrade to
// zero values so partial tapes still feed the KPI layer.
func LoadTape(r io.Reader) ([]*domain.Loan, []RowError, error) {
	cr := newReader(r)
	h, err := readHeader(cr)
	if err != nil {
		return nil, nil, err
	}
	idCol, err := h.require("loan_id", loanIDAliases)
	if err != nil {
		return nil, nil, err
	}
	borrowerCol := h.column(borrowerAliases)
	sectorCol := h.column(sectorAliases)
	productCol := h.column(productAliases)
	aprCol := h.column(aprAliases)
	disbursedCol := h.column(disbursedAliases)
	outstandingCol := h.column(outstandingAliases)
	originationCol := h.column(originationAliases)

	field := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	var loans []*domain.Loan
	var rowErrors []RowError
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrors = skip("tape", line, err.Error(), rowErrors)
			continue
		}
		loanID := field(row, idCol)
		if loanID == "" {
			rowErrors = skip("tape", line, "empty loan ID", rowErrors)
			continue
		}

		loan := &domain.Loan{
			LoanID:   loanID,
			Borrower: field(row, borrowerCol),
			Sector:   field(row, sectorCol),
			Product:  field(row, productCol),
		}

		bad := false
		if raw := field(row, aprCol); raw != "" {
			if loan.APR, err = parseAmount(raw); err != nil {
				rowErrors = skip("tape", line, err.Error(), rowErrors)
				bad = true
			}
		}
		if raw := field(row, disbursedCol); !bad && raw != "" {
			if loan.DisbursedAmount, err = parseAmount(raw); err != nil {
				rowErrors = skip("tape", line, err.Error(), rowErrors)
				bad = true
			}
		}
		if raw := field(row, outstandingCol); !bad && raw != "" {
			if loan.OutstandingPrincipal, err = parseAmount(raw); err != nil {
				rowErrors = skip("tape", line, err.Error(), rowErrors)
				bad = true
			}
		}
		if raw := field(row, originationCol); !bad && raw != "" {
			if loan.OriginationDate, err = parseDate(raw); err != nil {
				rowErrors = skip("tape", line, err.Error(), rowErrors)
				bad = true
			}
		}
		if bad {
			continue
		}
		loans = append(loans, loan)
	}
	return loans, rowErrors, nil
}
