package testutil

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/websocket"
)

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans map[string]*domain.Loan
	order []string
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{Loans: make(map[string]*domain.Loan)}
}

// AddLoan seeds a loan into the mock
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	if _, ok := m.Loans[loan.LoanID]; !ok {
		m.order = append(m.order, loan.LoanID)
	}
	m.Loans[loan.LoanID] = loan
}

func (m *MockLoanRepository) CreateBatch(loans []*domain.Loan) error {
	for _, l := range loans {
		m.AddLoan(l)
	}
	return nil
}

func (m *MockLoanRepository) GetAll() ([]*domain.Loan, error) {
	result := make([]*domain.Loan, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.Loans[id])
	}
	return result, nil
}

func (m *MockLoanRepository) GetByID(loanID string) (*domain.Loan, error) {
	if loan, ok := m.Loans[loanID]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) ReplaceAll(loans []*domain.Loan) error {
	m.Loans = make(map[string]*domain.Loan)
	m.order = nil
	return m.CreateBatch(loans)
}

// MockInstallmentRepository is a mock implementation of domain.InstallmentRepository
type MockInstallmentRepository struct {
	Installments []*domain.ScheduledInstallment
}

// NewMockInstallmentRepository creates a new MockInstallmentRepository
func NewMockInstallmentRepository() *MockInstallmentRepository {
	return &MockInstallmentRepository{}
}

// AddInstallment seeds an installment into the mock
func (m *MockInstallmentRepository) AddInstallment(inst *domain.ScheduledInstallment) {
	m.Installments = append(m.Installments, inst)
}

func (m *MockInstallmentRepository) CreateBatch(installments []*domain.ScheduledInstallment) error {
	m.Installments = append(m.Installments, installments...)
	return nil
}

func (m *MockInstallmentRepository) GetAll() ([]*domain.ScheduledInstallment, error) {
	return m.Installments, nil
}

func (m *MockInstallmentRepository) GetByLoanID(loanID string) ([]*domain.ScheduledInstallment, error) {
	var result []*domain.ScheduledInstallment
	for _, inst := range m.Installments {
		if inst.LoanID == loanID {
			result = append(result, inst)
		}
	}
	return result, nil
}

func (m *MockInstallmentRepository) ReplaceAll(installments []*domain.ScheduledInstallment) error {
	m.Installments = append([]*domain.ScheduledInstallment(nil), installments...)
	return nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments []*domain.Payment
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

// AddPayment seeds a payment into the mock
func (m *MockPaymentRepository) AddPayment(p *domain.Payment) {
	m.Payments = append(m.Payments, p)
}

func (m *MockPaymentRepository) CreateBatch(payments []*domain.Payment) error {
	m.Payments = append(m.Payments, payments...)
	return nil
}

func (m *MockPaymentRepository) GetAll() ([]*domain.Payment, error) {
	return m.Payments, nil
}

func (m *MockPaymentRepository) GetByLoanID(loanID string) ([]*domain.Payment, error) {
	var result []*domain.Payment
	for _, p := range m.Payments {
		if p.LoanID == loanID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPaymentRepository) ReplaceAll(payments []*domain.Payment) error {
	m.Payments = append([]*domain.Payment(nil), payments...)
	return nil
}

// MockArrearsRepository is a mock implementation of domain.ArrearsRepository
type MockArrearsRepository struct {
	Records []*domain.ArrearsRecord
}

// NewMockArrearsRepository creates a new MockArrearsRepository
func NewMockArrearsRepository() *MockArrearsRepository {
	return &MockArrearsRepository{}
}

func (m *MockArrearsRepository) ReplaceAll(records []*domain.ArrearsRecord) error {
	m.Records = append([]*domain.ArrearsRecord(nil), records...)
	return nil
}

func (m *MockArrearsRepository) GetAll() ([]*domain.ArrearsRecord, error) {
	return m.Records, nil
}

func (m *MockArrearsRepository) GetByLoanID(loanID string) (*domain.ArrearsRecord, error) {
	for _, r := range m.Records {
		if r.LoanID == loanID {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// MockKPIRepository is a mock implementation of domain.KPIRepository
type MockKPIRepository struct {
	Snapshots []*domain.KPISnapshot
}

// NewMockKPIRepository creates a new MockKPIRepository
func NewMockKPIRepository() *MockKPIRepository {
	return &MockKPIRepository{}
}

// AddSnapshot seeds a snapshot into the mock
func (m *MockKPIRepository) AddSnapshot(s *domain.KPISnapshot) {
	m.Snapshots = append(m.Snapshots, s)
}

func (m *MockKPIRepository) Append(snapshots []*domain.KPISnapshot) error {
	m.Snapshots = append(m.Snapshots, snapshots...)
	return nil
}

func (m *MockKPIRepository) GetSeries(metric string, limit int) ([]*domain.KPISnapshot, error) {
	var result []*domain.KPISnapshot
	for _, s := range m.Snapshots {
		if s.Metric == metric {
			result = append(result, s)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// MockAlertRepository is a mock implementation of domain.AlertRepository
type MockAlertRepository struct {
	Alerts map[uuid.UUID]*domain.Alert
	order  []uuid.UUID
}

// NewMockAlertRepository creates a new MockAlertRepository
func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{Alerts: make(map[uuid.UUID]*domain.Alert)}
}

func (m *MockAlertRepository) Create(alert *domain.Alert) (*domain.Alert, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	m.Alerts[alert.ID] = alert
	m.order = append(m.order, alert.ID)
	return alert, nil
}

func (m *MockAlertRepository) GetByID(id uuid.UUID) (*domain.Alert, error) {
	if alert, ok := m.Alerts[id]; ok {
		return alert, nil
	}
	return nil, domain.ErrAlertNotFound
}

func (m *MockAlertRepository) GetAll(includeAcknowledged bool) ([]*domain.Alert, error) {
	var result []*domain.Alert
	for _, id := range m.order {
		alert := m.Alerts[id]
		if !includeAcknowledged && alert.Acknowledged {
			continue
		}
		result = append(result, alert)
	}
	return result, nil
}

func (m *MockAlertRepository) Acknowledge(id uuid.UUID, at time.Time) (*domain.Alert, error) {
	alert, ok := m.Alerts[id]
	if !ok {
		return nil, domain.ErrAlertNotFound
	}
	if alert.Acknowledged {
		return nil, domain.ErrAlertAlreadyResolved
	}
	alert.Acknowledged = true
	alert.AcknowledgedAt = &at
	return alert, nil
}

// MockPublisher captures published websocket events
type MockPublisher struct {
	mu     sync.Mutex
	Events map[string][]websocket.Event
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Events: make(map[string][]websocket.Event)}
}

func (m *MockPublisher) Publish(topic string, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[topic] = append(m.Events[topic], event)
}

// Published returns the events published to a topic
func (m *MockPublisher) Published(topic string) []websocket.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]websocket.Event(nil), m.Events[topic]...)
}
