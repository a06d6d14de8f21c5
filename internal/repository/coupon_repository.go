package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements CouponRepository using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by code, case-insensitively.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, min_order_amount,
		       max_discount_amount, valid_from, valid_until, usage_limit,
		       usage_count, active, created_at
		FROM coupons
		WHERE lower(code) = lower($1)
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinOrderAmount,
		&c.MaxDiscountAmount, &c.ValidFrom, &c.ValidUntil, &c.UsageLimit,
		&c.UsageCount, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// RecordUsage increments the usage counter with the limit guard in the same
// statement, so concurrent checkouts can never oversell the cap. Zero rows
// affected means another checkout took the last slot.
func (r *couponRepository) RecordUsage(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error) {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE id = $1
		  AND active
		  AND (usage_limit = 0 OR usage_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", couponID.String()).Msg("failed to record coupon usage")
		return false, fmt.Errorf("failed to record coupon usage: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
