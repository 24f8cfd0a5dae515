package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Session Repository ===========

type sessionRepoPG struct{ pool *pgxpool.Pool }

func NewSessionRepoPG(pool *pgxpool.Pool) SessionRepository { return &sessionRepoPG{pool: pool} }

const sessionCols = `id, patient_id, physician_id, hospital_id, status, session_type, consultation_rate,
	started_at, ended_at, duration_minutes, payment_status, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.PatientID, &s.PhysicianID, &s.HospitalID, &s.Status, &s.SessionType, &s.ConsultationRate,
		&s.StartedAt, &s.EndedAt, &s.DurationMinutes, &s.PaymentStatus, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *sessionRepoPG) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO consultation_sessions (id, patient_id, physician_id, hospital_id, status,
			session_type, consultation_rate, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		s.ID, s.PatientID, s.PhysicianID, s.HospitalID, s.Status, s.SessionType,
		s.ConsultationRate, s.PaymentStatus).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *sessionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionCols+` FROM consultation_sessions WHERE id = $1`, id))
}

func (r *sessionRepoPG) Update(ctx context.Context, s *Session) error {
	return r.pool.QueryRow(ctx, `
		UPDATE consultation_sessions SET status=$2, started_at=$3, ended_at=$4,
			duration_minutes=$5, payment_status=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.Status, s.StartedAt, s.EndedAt, s.DurationMinutes, s.PaymentStatus).Scan(&s.UpdatedAt)
}

func (r *sessionRepoPG) List(ctx context.Context, limit, offset int) ([]*Session, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM consultation_sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+sessionCols+` FROM consultation_sessions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSessions(rows, total)
}

func (r *sessionRepoPG) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM consultation_sessions WHERE patient_id = $1 OR physician_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+sessionCols+` FROM consultation_sessions
		WHERE patient_id = $1 OR physician_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSessions(rows, total)
}

func (r *sessionRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error) {
	query := `SELECT ` + sessionCols + ` FROM consultation_sessions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM consultation_sessions WHERE 1=1`
	var args []interface{}
	idx := 1

	for _, col := range []string{"status", "session_type", "payment_status", "patient_id", "physician_id", "hospital_id"} {
		if p, ok := params[col]; ok {
			query += fmt.Sprintf(` AND %s = $%d`, col, idx)
			countQuery += fmt.Sprintf(` AND %s = $%d`, col, idx)
			args = append(args, p)
			idx++
		}
	}
	if p, ok := params["from"]; ok {
		query += fmt.Sprintf(` AND created_at >= $%d`, idx)
		countQuery += fmt.Sprintf(` AND created_at >= $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["to"]; ok {
		query += fmt.Sprintf(` AND created_at <= $%d`, idx)
		countQuery += fmt.Sprintf(` AND created_at <= $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSessions(rows, total)
}

func (r *sessionRepoPG) ExpireScheduledBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultation_sessions SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3`,
		StatusExpired, StatusScheduled, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func collectSessions(rows pgx.Rows, total int) ([]*Session, int, error) {
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Room Repository ===========

type roomRepoPG struct{ pool *pgxpool.Pool }

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository { return &roomRepoPG{pool: pool} }

const roomCols = `id, session_id, room_token, room_status, patient_joined, physician_joined, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var rm Room
	err := row.Scan(&rm.ID, &rm.SessionID, &rm.RoomToken, &rm.RoomStatus,
		&rm.PatientJoined, &rm.PhysicianJoined, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rm, err
}

func (r *roomRepoPG) Create(ctx context.Context, rm *Room) error {
	rm.ID = uuid.New()
	// ON CONFLICT keeps recovery idempotent if two repairs race.
	return r.pool.QueryRow(ctx, `
		INSERT INTO consultation_rooms (id, session_id, room_token, room_status, patient_joined, physician_joined)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rm.ID, rm.SessionID, rm.RoomToken, rm.RoomStatus, rm.PatientJoined, rm.PhysicianJoined).
		Scan(&rm.ID, &rm.CreatedAt, &rm.UpdatedAt)
}

func (r *roomRepoPG) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*Room, error) {
	return scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomCols+` FROM consultation_rooms WHERE session_id = $1`, sessionID))
}

func (r *roomRepoPG) Update(ctx context.Context, rm *Room) error {
	return r.pool.QueryRow(ctx, `
		UPDATE consultation_rooms SET room_status=$2, patient_joined=$3, physician_joined=$4, updated_at=NOW()
		WHERE session_id = $1
		RETURNING updated_at`,
		rm.SessionID, rm.RoomStatus, rm.PatientJoined, rm.PhysicianJoined).Scan(&rm.UpdatedAt)
}
