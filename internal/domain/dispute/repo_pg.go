package dispute

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Dispute Repository ===========

type disputeRepoPG struct{ pool *pgxpool.Pool }

func NewDisputeRepoPG(pool *pgxpool.Pool) DisputeRepository { return &disputeRepoPG{pool: pool} }

const disputeCols = `id, hospital_id, raised_by, session_id, amount, reason, status,
	resolution_note, resolved_by, resolved_at, created_at, updated_at`

func scanDispute(row pgx.Row) (*FinancialDispute, error) {
	var d FinancialDispute
	err := row.Scan(&d.ID, &d.HospitalID, &d.RaisedBy, &d.SessionID, &d.Amount, &d.Reason, &d.Status,
		&d.ResolutionNote, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *disputeRepoPG) Create(ctx context.Context, d *FinancialDispute) error {
	d.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO financial_disputes (id, hospital_id, raised_by, session_id, amount, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		d.ID, d.HospitalID, d.RaisedBy, d.SessionID, d.Amount, d.Reason, d.Status).
		Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *disputeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*FinancialDispute, error) {
	return scanDispute(r.pool.QueryRow(ctx, `SELECT `+disputeCols+` FROM financial_disputes WHERE id = $1`, id))
}

func (r *disputeRepoPG) Update(ctx context.Context, d *FinancialDispute) error {
	return r.pool.QueryRow(ctx, `
		UPDATE financial_disputes SET status=$2, resolution_note=$3, resolved_by=$4, resolved_at=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Status, d.ResolutionNote, d.ResolvedBy, d.ResolvedAt).Scan(&d.UpdatedAt)
}

func (r *disputeRepoPG) List(ctx context.Context, limit, offset int) ([]*FinancialDispute, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM financial_disputes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+disputeCols+` FROM financial_disputes ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDisputes(rows, total)
}

func (r *disputeRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialDispute, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM financial_disputes WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+disputeCols+` FROM financial_disputes
		WHERE hospital_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDisputes(rows, total)
}

func (r *disputeRepoPG) ListByStatus(ctx context.Context, status DisputeStatus, limit, offset int) ([]*FinancialDispute, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM financial_disputes WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+disputeCols+` FROM financial_disputes
		WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDisputes(rows, total)
}

func (r *disputeRepoPG) CountByHospitalSince(ctx context.Context, hospitalID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM financial_disputes WHERE hospital_id = $1 AND created_at >= $2`,
		hospitalID, since).Scan(&count)
	return count, err
}

func collectDisputes(rows pgx.Rows, total int) ([]*FinancialDispute, int, error) {
	var items []*FinancialDispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// =========== Alert Repository ===========

type alertRepoPG struct{ pool *pgxpool.Pool }

func NewAlertRepoPG(pool *pgxpool.Pool) AlertRepository { return &alertRepoPG{pool: pool} }

func (r *alertRepoPG) Create(ctx context.Context, a *FinancialAlert) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO financial_alerts (id, hospital_id, alert_type, message, dispute_count)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		a.ID, a.HospitalID, a.AlertType, a.Message, a.DisputeCount).Scan(&a.CreatedAt)
}

func (r *alertRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*FinancialAlert, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM financial_alerts WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, alert_type, message, dispute_count, created_at
		FROM financial_alerts WHERE hospital_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*FinancialAlert
	for rows.Next() {
		var a FinancialAlert
		if err := rows.Scan(&a.ID, &a.HospitalID, &a.AlertType, &a.Message, &a.DisputeCount, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	return items, total, rows.Err()
}
