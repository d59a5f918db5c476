package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gearrent/internal/domain"
)

// DeviceRepository persiste tokens de push por (user_id, token).
type DeviceRepository interface {
	Upsert(ctx context.Context, device domain.DeviceToken) error
	Deactivate(ctx context.Context, userID, token string, at time.Time) (bool, error)
	ActiveTokens(ctx context.Context, userID string) ([]string, error)
	PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error)
}

// PgDeviceRepository implementa DeviceRepository usando pgxpool.
type PgDeviceRepository struct {
	pool *pgxpool.Pool
}

func NewPgDeviceRepository(pool *pgxpool.Pool) *PgDeviceRepository {
	return &PgDeviceRepository{pool: pool}
}

func (r *PgDeviceRepository) Upsert(ctx context.Context, device domain.DeviceToken) error {
	// Re-registrar un token existente lo reactiva.
	const query = `
		INSERT INTO device_tokens (user_id, token, platform, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, true, $4, $4)
		ON CONFLICT (user_id, token) DO UPDATE
		SET platform = EXCLUDED.platform, is_active = true, updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		device.UserID,
		device.Token,
		device.Platform,
		device.CreatedAt,
	)
	return err
}

func (r *PgDeviceRepository) Deactivate(ctx context.Context, userID, token string, at time.Time) (bool, error) {
	const query = `
		UPDATE device_tokens
		SET is_active = false, updated_at = $3
		WHERE user_id = $1 AND token = $2 AND is_active = true
	`
	tag, err := r.pool.Exec(ctx, query, userID, token, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgDeviceRepository) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT token
		FROM device_tokens
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *PgDeviceRepository) PurgeInactive(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `
		DELETE FROM device_tokens
		WHERE is_active = false AND updated_at < $1
	`
	tag, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
