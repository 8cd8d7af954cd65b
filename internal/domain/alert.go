package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlertMetricRequired   = errors.New("alert metric is required")
	ErrAlertDetectorInvalid  = errors.New("alert detector is invalid")
	ErrAlertSeverityInvalid  = errors.New("alert severity is invalid")
	ErrAlertAlreadyResolved  = errors.New("alert is already acknowledged")
)

// Detector identifies which threshold rule fired an alert.
type Detector string

const (
	DetectorEWMA  Detector = "ewma"
	DetectorCUSUM Detector = "cusum"
	DetectorMADZ  Detector = "madz"
)

// Severity classifies how far past its limit a metric has moved.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one detector firing on one metric at one point in time.
type Alert struct {
	ID             uuid.UUID  `json:"id"`
	Metric         string     `json:"metric"`
	Detector       Detector   `json:"detector"`
	Value          float64    `json:"value"`
	Threshold      float64    `json:"threshold"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	TriggeredAt    time.Time  `json:"triggeredAt"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
}

func (a *Alert) Validate() error {
	if a.Metric == "" {
		return ErrAlertMetricRequired
	}
	switch a.Detector {
	case DetectorEWMA, DetectorCUSUM, DetectorMADZ:
	default:
		return ErrAlertDetectorInvalid
	}
	switch a.Severity {
	case SeverityWarning, SeverityCritical:
	default:
		return ErrAlertSeverityInvalid
	}
	return nil
}

type AlertRepository interface {
	Create(alert *Alert) (*Alert, error)
	GetByID(id uuid.UUID) (*Alert, error)
	GetAll(includeAcknowledged bool) ([]*Alert, error)
	Acknowledge(id uuid.UUID, at time.Time) (*Alert, error)
}
