package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository { return &profileRepoPG{pool: pool} }

const profileCols = `id, email, full_name, role, specialty, phone, is_active, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.Specialty, &p.Phone,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, role, specialty, phone, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.Email, p.FullName, p.Role, p.Specialty, p.Phone, p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE id = $1`, id))
}

func (r *profileRepoPG) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE email = $1`, email))
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	return r.pool.QueryRow(ctx, `
		UPDATE profiles SET email=$2, full_name=$3, role=$4, specialty=$5, phone=$6, is_active=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Email, p.FullName, p.Role, p.Specialty, p.Phone, p.IsActive).Scan(&p.UpdatedAt)
}

func (r *profileRepoPG) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+profileCols+` FROM profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectProfiles(rows, total)
}

func (r *profileRepoPG) ListActiveByRole(ctx context.Context, role string) ([]*Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE role = $1 AND is_active ORDER BY created_at`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collectProfiles(rows, 0)
	return items, err
}

func (r *profileRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Profile, int, error) {
	query := `SELECT ` + profileCols + ` FROM profiles WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM profiles WHERE 1=1`
	var args []interface{}
	idx := 1

	for _, col := range []string{"role", "specialty", "is_active"} {
		if p, ok := params[col]; ok {
			query += fmt.Sprintf(` AND %s = $%d`, col, idx)
			countQuery += fmt.Sprintf(` AND %s = $%d`, col, idx)
			args = append(args, p)
			idx++
		}
	}
	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND full_name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND full_name ILIKE $%d`, idx)
		args = append(args, "%"+p+"%")
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
	return collectProfiles(rows, total)
}

func collectProfiles(rows pgx.Rows, total int) ([]*Profile, int, error) {
	var items []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Agent-Assisted Patient Repository ===========

type assistedRepoPG struct{ pool *pgxpool.Pool }

func NewAssistedPatientRepoPG(pool *pgxpool.Pool) AssistedPatientRepository {
	return &assistedRepoPG{pool: pool}
}

func (r *assistedRepoPG) Create(ctx context.Context, a *AgentAssistedPatient) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO agent_assisted_patients (id, agent_id, patient_id, note)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		a.ID, a.AgentID, a.PatientID, a.Note).Scan(&a.CreatedAt)
}

func (r *assistedRepoPG) ListByAgent(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*AgentAssistedPatient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM agent_assisted_patients WHERE agent_id = $1`, agentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, agent_id, patient_id, note, created_at FROM agent_assisted_patients
		WHERE agent_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, agentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*AgentAssistedPatient
	for rows.Next() {
		var a AgentAssistedPatient
		if err := rows.Scan(&a.ID, &a.AgentID, &a.PatientID, &a.Note, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	return items, total, rows.Err()
}

func (r *assistedRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agent_assisted_patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
