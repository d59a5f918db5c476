package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gearrent/internal/domain"
)

// OTPRepository define el contrato de persistencia para códigos de
// verificación.
type OTPRepository interface {
	Create(ctx context.Context, challenge domain.OTPChallenge) error
	// Consume marca como usado un código vigente que coincida con
	// (userID, purpose, code). Devuelve true solo si una fila pasó de
	// is_used=false a true; bajo verificaciones concurrentes a lo sumo
	// una llamada puede devolver true.
	Consume(ctx context.Context, userID string, purpose domain.OTPPurpose, code string, now time.Time) (bool, error)
	DeleteExpiredUnused(ctx context.Context, userID string, purpose domain.OTPPurpose, now time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// PgOTPRepository implementa OTPRepository usando pgxpool.
type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) Create(ctx context.Context, challenge domain.OTPChallenge) error {
	const query = `
		INSERT INTO otp_challenges (id, user_id, purpose, code, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		challenge.ID,
		challenge.UserID,
		challenge.Purpose,
		challenge.Code,
		challenge.ExpiresAt,
		challenge.IsUsed,
		challenge.CreatedAt,
	)
	return err
}

func (r *PgOTPRepository) Consume(ctx context.Context, userID string, purpose domain.OTPPurpose, code string, now time.Time) (bool, error) {
	// El WHERE is_used = false hace la transición atómica; el conteo de
	// filas afectadas es la señal de éxito.
	const query = `
		UPDATE otp_challenges
		SET is_used = true
		WHERE user_id = $1 AND purpose = $2 AND code = $3
		  AND is_used = false AND expires_at > $4
	`
	tag, err := r.pool.Exec(ctx, query, userID, purpose, code, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgOTPRepository) DeleteExpiredUnused(ctx context.Context, userID string, purpose domain.OTPPurpose, now time.Time) error {
	const query = `
		DELETE FROM otp_challenges
		WHERE user_id = $1 AND purpose = $2
		  AND is_used = false AND expires_at <= $3
	`
	_, err := r.pool.Exec(ctx, query, userID, purpose, now)
	return err
}

func (r *PgOTPRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		DELETE FROM otp_challenges
		WHERE expires_at <= $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
