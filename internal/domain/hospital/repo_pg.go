package hospital

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Hospital Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const hospitalCols = `id, name, address, phone, email, is_active, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.Email, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO hospitals (id, name, address, phone, email, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		h.ID, h.Name, h.Address, h.Phone, h.Email, h.IsActive).Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	return r.pool.QueryRow(ctx, `
		UPDATE hospitals SET name=$2, address=$3, phone=$4, email=$5, is_active=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		h.ID, h.Name, h.Address, h.Phone, h.Email, h.IsActive).Scan(&h.UpdatedAt)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+hospitalCols+` FROM hospitals ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, rows.Err()
}

// =========== Financial Data Repository ===========

type financialDataRepoPG struct{ pool *pgxpool.Pool }

func NewFinancialDataRepoPG(pool *pgxpool.Pool) FinancialDataRepository {
	return &financialDataRepoPG{pool: pool}
}

func (r *financialDataRepoPG) Upsert(ctx context.Context, d *FinancialData) error {
	d.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO hospital_financial_data (id, hospital_id, period, revenue, expenses)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (hospital_id, period) DO UPDATE SET
			revenue = EXCLUDED.revenue, expenses = EXCLUDED.expenses, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		d.ID, d.HospitalID, d.Period, d.Revenue, d.Expenses).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *financialDataRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*FinancialData, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, period, revenue, expenses, created_at, updated_at
		FROM hospital_financial_data WHERE hospital_id = $1 ORDER BY period DESC`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*FinancialData
	for rows.Next() {
		var d FinancialData
		if err := rows.Scan(&d.ID, &d.HospitalID, &d.Period, &d.Revenue, &d.Expenses, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

// =========== Performance Metric Repository ===========

type metricRepoPG struct{ pool *pgxpool.Pool }

func NewMetricRepoPG(pool *pgxpool.Pool) MetricRepository { return &metricRepoPG{pool: pool} }

func (r *metricRepoPG) Record(ctx context.Context, m *PerformanceMetric) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO performance_metrics (id, hospital_id, metric_name, metric_value)
		VALUES ($1,$2,$3,$4)
		RETURNING recorded_at`,
		m.ID, m.HospitalID, m.MetricName, m.Value).Scan(&m.RecordedAt)
}

func (r *metricRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]*PerformanceMetric, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, metric_name, metric_value, recorded_at
		FROM performance_metrics
		WHERE hospital_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at DESC`, hospitalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PerformanceMetric
	for rows.Next() {
		var m PerformanceMetric
		if err := rows.Scan(&m.ID, &m.HospitalID, &m.MetricName, &m.Value, &m.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

// =========== Analytics Repository ===========

type analyticsRepoPG struct{ pool *pgxpool.Pool }

func NewAnalyticsRepoPG(pool *pgxpool.Pool) AnalyticsRepository { return &analyticsRepoPG{pool: pool} }

func (r *analyticsRepoPG) SessionsForHospital(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) ([]SessionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, consultation_rate, COALESCE(duration_minutes, 0), payment_status
		FROM consultation_sessions
		WHERE hospital_id = $1 AND created_at >= $2 AND created_at < $3`, hospitalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var s SessionRecord
		if err := rows.Scan(&s.Status, &s.ConsultationRate, &s.DurationMinutes, &s.PaymentStatus); err != nil {
			return nil, err
		}
		records = append(records, s)
	}
	return records, rows.Err()
}

func (r *analyticsRepoPG) WaitlistDepth(ctx context.Context, hospitalID uuid.UUID) (int, error) {
	var depth int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_waitlist WHERE hospital_id = $1 AND status = 'waiting'`,
		hospitalID).Scan(&depth)
	return depth, err
}

func (r *analyticsRepoPG) DisputeTotals(ctx context.Context, hospitalID uuid.UUID, from, to time.Time) (DisputeTotals, error) {
	var t DisputeTotals
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('open', 'under_review')),
			COUNT(*) FILTER (WHERE status = 'resolved'),
			COALESCE(SUM(amount), 0)
		FROM financial_disputes
		WHERE hospital_id = $1 AND created_at >= $2 AND created_at < $3`,
		hospitalID, from, to).Scan(&t.Total, &t.Open, &t.Resolved, &t.Amount)
	return t, err
}
