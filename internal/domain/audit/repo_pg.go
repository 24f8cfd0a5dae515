package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Admin Action Repository ===========

type adminActionRepoPG struct{ pool *pgxpool.Pool }

func NewAdminActionRepoPG(pool *pgxpool.Pool) AdminActionRepository {
	return &adminActionRepoPG{pool: pool}
}

const actionCols = `id, admin_id, action_type, target_type, target_id, details, created_at`

func (r *adminActionRepoPG) Create(ctx context.Context, a *AdminAction) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO admin_actions (id, admin_id, action_type, target_type, target_id, details)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		a.ID, a.AdminID, a.ActionType, a.TargetType, a.TargetID, a.Details).Scan(&a.CreatedAt)
}

func (r *adminActionRepoPG) List(ctx context.Context, f ActionFilter, limit, offset int) ([]*AdminAction, int, error) {
	query := `SELECT ` + actionCols + ` FROM admin_actions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM admin_actions WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(clause string, arg interface{}) {
		query += fmt.Sprintf(clause, idx)
		countQuery += fmt.Sprintf(clause, idx)
		args = append(args, arg)
		idx++
	}
	if f.AdminID != uuid.Nil {
		add(` AND admin_id = $%d`, f.AdminID)
	}
	if f.ActionType != "" {
		add(` AND action_type = $%d`, f.ActionType)
	}
	if f.From != "" {
		add(` AND created_at >= $%d`, f.From)
	}
	if f.To != "" {
		add(` AND created_at <= $%d`, f.To)
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

	var items []*AdminAction
	for rows.Next() {
		var a AdminAction
		if err := rows.Scan(&a.ID, &a.AdminID, &a.ActionType, &a.TargetType, &a.TargetID,
			&a.Details, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &a)
	}
	return items, total, rows.Err()
}

// =========== Activity Log Repository ===========

type activityLogRepoPG struct{ pool *pgxpool.Pool }

func NewActivityLogRepoPG(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepoPG{pool: pool}
}

func (r *activityLogRepoPG) Create(ctx context.Context, l *UserActivityLog) error {
	l.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO user_activity_logs (id, user_id, activity_type, description, ip_address)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		l.ID, l.UserID, l.ActivityType, l.Description, l.IPAddress).Scan(&l.CreatedAt)
}

func (r *activityLogRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*UserActivityLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_activity_logs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, activity_type, description, ip_address, created_at
		FROM user_activity_logs WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*UserActivityLog
	for rows.Next() {
		var l UserActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.ActivityType, &l.Description, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &l)
	}
	return items, total, rows.Err()
}

// =========== System Setting Repository ===========

type settingRepoPG struct{ pool *pgxpool.Pool }

func NewSettingRepoPG(pool *pgxpool.Pool) SettingRepository { return &settingRepoPG{pool: pool} }

func (r *settingRepoPG) Upsert(ctx context.Context, s *SystemSetting) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO system_settings (id, key, value, updated_by)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by, updated_at = NOW()
		RETURNING id, updated_at`,
		s.ID, s.Key, s.Value, s.UpdatedBy).Scan(&s.ID, &s.UpdatedAt)
}

func (r *settingRepoPG) Get(ctx context.Context, key string) (*SystemSetting, error) {
	var s SystemSetting
	err := r.pool.QueryRow(ctx, `
		SELECT id, key, value, updated_by, updated_at FROM system_settings WHERE key = $1`, key).
		Scan(&s.ID, &s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *settingRepoPG) List(ctx context.Context) ([]*SystemSetting, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, key, value, updated_by, updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SystemSetting
	for rows.Next() {
		var s SystemSetting
		if err := rows.Scan(&s.ID, &s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
