package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository { return &reportRepoPG{pool: pool} }

const reportCols = `id, hospital_id, report_type, period_start, period_end, status,
	submitted_by, review_note, created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.HospitalID, &r.ReportType, &r.PeriodStart, &r.PeriodEnd, &r.Status,
		&r.SubmittedBy, &r.ReviewNote, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &r, err
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO compliance_reports (id, hospital_id, report_type, period_start, period_end, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		rep.ID, rep.HospitalID, rep.ReportType, rep.PeriodStart, rep.PeriodEnd, rep.Status).
		Scan(&rep.CreatedAt, &rep.UpdatedAt)
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM compliance_reports WHERE id = $1`, id))
}

func (r *reportRepoPG) Update(ctx context.Context, rep *Report) error {
	return r.pool.QueryRow(ctx, `
		UPDATE compliance_reports SET status=$2, submitted_by=$3, review_note=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		rep.ID, rep.Status, rep.SubmittedBy, rep.ReviewNote).Scan(&rep.UpdatedAt)
}

func (r *reportRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM compliance_reports WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportCols+` FROM compliance_reports
		WHERE hospital_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectReports(rows, total)
}

func (r *reportRepoPG) ListByStatus(ctx context.Context, status ReportStatus, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM compliance_reports WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportCols+` FROM compliance_reports
		WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectReports(rows, total)
}

func collectReports(rows pgx.Rows, total int) ([]*Report, int, error) {
	var items []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, rows.Err()
}

// =========== Tracking Repository ===========

type trackingRepoPG struct{ pool *pgxpool.Pool }

func NewTrackingRepoPG(pool *pgxpool.Pool) TrackingRepository { return &trackingRepoPG{pool: pool} }

func (r *trackingRepoPG) Upsert(ctx context.Context, t *Tracking) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO hospital_compliance_tracking (id, hospital_id, requirement, status, note)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (hospital_id, requirement) DO UPDATE SET status = EXCLUDED.status,
			note = EXCLUDED.note, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		t.ID, t.HospitalID, t.Requirement, t.Status, t.Note).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *trackingRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*Tracking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, requirement, status, note, created_at, updated_at
		FROM hospital_compliance_tracking WHERE hospital_id = $1 ORDER BY requirement`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Tracking
	for rows.Next() {
		var t Tracking
		if err := rows.Scan(&t.ID, &t.HospitalID, &t.Requirement, &t.Status, &t.Note, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

// =========== Alert Repository ===========

type alertRepoPG struct{ pool *pgxpool.Pool }

func NewAlertRepoPG(pool *pgxpool.Pool) AlertRepository { return &alertRepoPG{pool: pool} }

func (r *alertRepoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO compliance_alerts (id, hospital_id, score, message)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		a.ID, a.HospitalID, a.Score, a.Message).Scan(&a.CreatedAt)
}

func (r *alertRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Alert, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM compliance_alerts WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, score, message, created_at FROM compliance_alerts
		WHERE hospital_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.HospitalID, &a.Score, &a.Message, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	return items, total, rows.Err()
}
