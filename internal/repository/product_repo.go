package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gearrent/internal/domain"
)

// ProductRepository expone la lectura de productos y sus tarifas. Las
// tarifas son columnas numeric anulables; un NULL significa que el
// producto no ofrece esa granularidad.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
}

// PgProductRepository implementa ProductRepository usando pgxpool.
type PgProductRepository struct {
	pool *pgxpool.Pool
}

func NewPgProductRepository(pool *pgxpool.Pool) *PgProductRepository {
	return &PgProductRepository{pool: pool}
}

func (r *PgProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	const query = `
		SELECT id, name, hourly_rate, daily_rate, weekly_rate, monthly_rate, security_deposit, created_at
		FROM products
		WHERE id = $1
	`
	var (
		p       domain.Product
		hourly  decimal.NullDecimal
		daily   decimal.NullDecimal
		weekly  decimal.NullDecimal
		monthly decimal.NullDecimal
		deposit decimal.NullDecimal
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&hourly,
		&daily,
		&weekly,
		&monthly,
		&deposit,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, err
	}
	if err != nil {
		return domain.Product{}, err
	}

	p.Rates = domain.RateTable{
		Hourly:          nullableDecimal(hourly),
		Daily:           nullableDecimal(daily),
		Weekly:          nullableDecimal(weekly),
		Monthly:         nullableDecimal(monthly),
		SecurityDeposit: nullableDecimal(deposit),
	}
	return p, nil
}

func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
