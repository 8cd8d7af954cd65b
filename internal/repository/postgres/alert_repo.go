package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeninefer/commercial-view/internal/domain"
)

// AlertRepository implements domain.AlertRepository using PostgreSQL
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const selectAlertSQL = `
SELECT id, metric, detector, value, threshold, severity, message,
    triggered_at, acknowledged, acknowledged_at
FROM alerts`

// Create stores a new alert
func (r *AlertRepository) Create(alert *domain.Alert) (*domain.Alert, error) {
	ctx := context.Background()
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO alerts (id, metric, detector, value, threshold, severity, message, triggered_at, acknowledged)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)`,
		alert.ID, alert.Metric, string(alert.Detector), alert.Value, alert.Threshold,
		string(alert.Severity), alert.Message, alert.TriggeredAt)
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// GetByID retrieves one alert
func (r *AlertRepository) GetByID(id uuid.UUID) (*domain.Alert, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, selectAlertSQL+" WHERE id = $1", id)
	alert, err := scanAlert(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

// GetAll lists alerts, oldest first. Acknowledged alerts are excluded
// unless includeAcknowledged is set.
func (r *AlertRepository) GetAll(includeAcknowledged bool) ([]*domain.Alert, error) {
	ctx := context.Background()

	query := selectAlertSQL
	if !includeAcknowledged {
		query += " WHERE acknowledged = false"
	}
	query += " ORDER BY triggered_at ASC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// Acknowledge marks an alert as handled. Acknowledging twice is an error.
func (r *AlertRepository) Acknowledge(id uuid.UUID, at time.Time) (*domain.Alert, error) {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx,
		"UPDATE alerts SET acknowledged = true, acknowledged_at = $2 WHERE id = $1 AND acknowledged = false",
		id, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from already acknowledged
		existing, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		if existing.Acknowledged {
			return nil, domain.ErrAlertAlreadyResolved
		}
		return nil, domain.ErrAlertNotFound
	}
	return r.GetByID(id)
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		alert          domain.Alert
		detector       string
		severity       string
		acknowledgedAt pgtype.Timestamptz
	)
	if err := row.Scan(&alert.ID, &alert.Metric, &detector, &alert.Value, &alert.Threshold,
		&severity, &alert.Message, &alert.TriggeredAt, &alert.Acknowledged, &acknowledgedAt); err != nil {
		return nil, err
	}
	alert.Detector = domain.Detector(detector)
	alert.Severity = domain.Severity(severity)
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time
		alert.AcknowledgedAt = &t
	}
	return &alert, nil
}
