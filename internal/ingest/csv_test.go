package ingest

import (
	"strings"
	"testing"

	"github.com/jeninefer/commercial-view/internal/util"
	"github.com/shopspring/decimal"
)

func TestLoadSchedule_Success(t *testing.T) {
	csv := "loan_id,due_date,amount_due\n" +
		"L001,2024-01-01,1000.00\n" +
		"L001,2024-02-01,1000.00\n" +
		"L002,2024-01-15,250.50\n"

	installments, rowErrors, err := LoadSchedule(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rowErrors) != 0 {
		t.Errorf("Expected no row errors, got %d", len(rowErrors))
	}
	if len(installments) != 3 {
		t.Fatalf("Expected 3 installments, got %d", len(installments))
	}
	if installments[0].LoanID != "L001" {
		t.Errorf("Expected loan L001, got %s", installments[0].LoanID)
	}
	if !installments[0].DueDate.Equal(util.Date(2024, 1, 1)) {
		t.Errorf("Expected due date 2024-01-01, got %v", installments[0].DueDate)
	}
	if !installments[2].AmountDue.Equal(decimal.NewFromFloat(250.50)) {
		t.Errorf("Expected amount 250.50, got %s", installments[2].AmountDue.String())
	}
}

func TestLoadSchedule_AliasedSpanishColumns(t *testing.T) {
	csv := "Prestamo_ID,Fecha_Vencimiento,Monto\n" +
		"P-9,2024-03-01,1200\n"

	installments, rowErrors, err := LoadSchedule(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rowErrors) != 0 {
		t.Errorf("Expected no row errors, got %d", len(rowErrors))
	}
	if len(installments) != 1 || installments[0].LoanID != "P-9" {
		t.Fatalf("Expected aliased columns to resolve, got %+v", installments)
	}
}

func TestLoadSchedule_MalformedRowsSkippedNotFatal(t *testing.T) {
	csv := "loan_id,due_date,amount_due\n" +
		"L001,2024-01-01,1000\n" +
		"L002,not-a-date,1000\n" +
		"L003,2024-02-01,abc\n" +
		",2024-02-01,500\n" +
		"L004,2024-03-01,750\n"

	installments, rowErrors, err := LoadSchedule(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Expected no error for row-level issues, got %v", err)
	}
	if len(installments) != 2 {
		t.Errorf("Expected 2 good rows, got %d", len(installments))
	}
	if len(rowErrors) != 3 {
		t.Fatalf("Expected 3 skipped rows, got %d", len(rowErrors))
	}
	if rowErrors[0].Line != 3 {
		t.Errorf("Expected first skipped row at line 3, got %d", rowErrors[0].Line)
	}
}

func TestLoadSchedule_MissingRequiredColumnIsFatal(t *testing.T) {
	csv := "loan_id,amount_due\nL001,1000\n"

	_, _, err := LoadSchedule(strings.NewReader(csv))
	if err == nil {
		t.Fatal("Expected an error for a missing due_date column")
	}
	if !strings.Contains(err.Error(), "due_date") {
		t.Errorf("Expected error to name the missing column, got %v", err)
	}
}

func TestLoadPayments_Success(t *testing.T) {
	csv := "loan_id,payment_date,amount_paid\n" +
		"L001,2024-01-01,1000\n" +
		"L001,2024-02-03,-50\n" // reversal, legal

	payments, rowErrors, err := LoadPayments(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rowErrors) != 0 {
		t.Errorf("Expected no row errors, got %d", len(rowErrors))
	}
	if len(payments) != 2 {
		t.Fatalf("Expected 2 payments, got %d", len(payments))
	}
	if !payments[1].AmountPaid.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Expected negative reversal to flow through, got %s", payments[1].AmountPaid.String())
	}
}

func TestLoadTape_Success(t *testing.T) {
	csv := "loan_id,cliente,sector,apr,saldo,monto_desembolsado,fecha_origen\n" +
		"L001,Acme SA,retail,0.32,\"8,500.00\",10000,2023-06-15\n" +
		"L002,Beta SRL,agro,0.28,4000,5000,2023-09-01\n"

	loans, rowErrors, err := LoadTape(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rowErrors) != 0 {
		t.Errorf("Expected no row errors, got %d", len(rowErrors))
	}
	if len(loans) != 2 {
		t.Fatalf("Expected 2 loans, got %d", len(loans))
	}
	if loans[0].Borrower != "Acme SA" || loans[0].Sector != "retail" {
		t.Errorf("Expected aliased borrower/sector, got %+v", loans[0])
	}
	if !loans[0].OutstandingPrincipal.Equal(decimal.NewFromFloat(8500.00)) {
		t.Errorf("Expected thousands separator stripped, got %s", loans[0].OutstandingPrincipal.String())
	}
	if !loans[1].OriginationDate.Equal(util.Date(2023, 9, 1)) {
		t.Errorf("Expected origination 2023-09-01, got %v", loans[1].OriginationDate)
	}
}

func TestLoadTape_BadAmountSkipsRow(t *testing.T) {
	csv := "loan_id,apr\n" +
		"L001,0.30\n" +
		"L002,thirty\n"

	loans, rowErrors, err := LoadTape(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(loans) != 1 || loans[0].LoanID != "L001" {
		t.Errorf("Expected only the good row, got %+v", loans)
	}
	if len(rowErrors) != 1 {
		t.Errorf("Expected 1 skipped row, got %d", len(rowErrors))
	}
}

func TestLoadSchedule_EmptyBody(t *testing.T) {
	installments, rowErrors, err := LoadSchedule(strings.NewReader("loan_id,due_date,amount_due\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(installments) != 0 || len(rowErrors) != 0 {
		t.Errorf("Expected empty result, got %d rows %d errors", len(installments), len(rowErrors))
	}
}
