package emergency

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Request Repository ===========

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository { return &requestRepoPG{pool: pool} }

const requestCols = `id, patient_id, hospital_id, status, location, description,
	acknowledged_by, resolved_at, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.PatientID, &r.HospitalID, &r.Status, &r.Location, &r.Description,
		&r.AcknowledgedBy, &r.ResolvedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &r, err
}

func (r *requestRepoPG) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO emergency_requests (id, patient_id, hospital_id, status, location, description)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		req.ID, req.PatientID, req.HospitalID, req.Status, req.Location, req.Description).
		Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestCols+` FROM emergency_requests WHERE id = $1`, id))
}

func (r *requestRepoPG) Update(ctx context.Context, req *Request) error {
	return r.pool.QueryRow(ctx, `
		UPDATE emergency_requests SET status=$2, acknowledged_by=$3, resolved_at=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		req.ID, req.Status, req.AcknowledgedBy, req.ResolvedAt).Scan(&req.UpdatedAt)
}

func (r *requestRepoPG) List(ctx context.Context, limit, offset int) ([]*Request, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM emergency_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestCols+` FROM emergency_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRequests(rows, total)
}

func (r *requestRepoPG) ListByStatus(ctx context.Context, status RequestStatus, limit, offset int) ([]*Request, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM emergency_requests WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+requestCols+` FROM emergency_requests
		WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRequests(rows, total)
}

func collectRequests(rows pgx.Rows, total int) ([]*Request, int, error) {
	var items []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, req)
	}
	return items, total, rows.Err()
}

// =========== Broadcast Repository ===========

type broadcastRepoPG struct{ pool *pgxpool.Pool }

func NewBroadcastRepoPG(pool *pgxpool.Pool) BroadcastRepository { return &broadcastRepoPG{pool: pool} }

func (r *broadcastRepoPG) Create(ctx context.Context, b *Broadcast) error {
	b.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO emergency_broadcasts (id, sender_id, target_role, title, message, type, recipients)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		b.ID, b.SenderID, b.TargetRole, b.Title, b.Message, b.Type, b.Recipients).Scan(&b.CreatedAt)
}

func (r *broadcastRepoPG) List(ctx context.Context, limit, offset int) ([]*Broadcast, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM emergency_broadcasts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, target_role, title, message, type, recipients, created_at
		FROM emergency_broadcasts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Broadcast
	for rows.Next() {
		var b Broadcast
		if err := rows.Scan(&b.ID, &b.SenderID, &b.TargetRole, &b.Title, &b.Message, &b.Type,
			&b.Recipients, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &b)
	}
	return items, total, rows.Err()
}
