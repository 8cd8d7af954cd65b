package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeninefer/commercial-view/internal/domain"
)

// KPIRepository implements domain.KPIRepository using PostgreSQL. The
// table is append-only; each snapshot cycle adds one row per metric.
type KPIRepository struct {
	pool *pgxpool.Pool
}

// NewKPIRepository creates a new KPIRepository
func NewKPIRepository(pool *pgxpool.Pool) *KPIRepository {
	return &KPIRepository{pool: pool}
}

// Append stores a batch of KPI observations
func (r *KPIRepository) Append(snapshots []*domain.KPISnapshot) error {
	ctx := context.Background()
	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(
			"INSERT INTO kpi_snapshots (reference_date, metric, value) VALUES ($1, $2, $3)",
			timeToPgDate(s.ReferenceDate), s.Metric, s.Value)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// GetSeries retrieves the most recent observations of one metric in
// chronological order. limit <= 0 means the whole series.
func (r *KPIRepository) GetSeries(metric string, limit int) ([]*domain.KPISnapshot, error) {
	ctx := context.Background()

	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = r.pool.Query(ctx, `
SELECT reference_date, metric, value FROM (
    SELECT id, reference_date, metric, value
    FROM kpi_snapshots
    WHERE metric = $1
    ORDER BY reference_date DESC, id DESC
    LIMIT $2
) recent
ORDER BY reference_date ASC, id ASC`, metric, limit)
	} else {
		rows, err = r.pool.Query(ctx,
			"SELECT reference_date, metric, value FROM kpi_snapshots WHERE metric = $1 ORDER BY reference_date ASC, id ASC",
			metric)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []*domain.KPISnapshot
	for rows.Next() {
		var (
			s       domain.KPISnapshot
			refDate pgtype.Date
		)
		if err := rows.Scan(&refDate, &s.Metric, &s.Value); err != nil {
			return nil, err
		}
		s.ReferenceDate = refDate.Time
		series = append(series, &s)
	}
	return series, rows.Err()
}
