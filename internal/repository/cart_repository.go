package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements CartRepository using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// GetByCustomer retrieves the customer's cart, creating the row on first
// touch. Line unit prices are resolved from the catalogue at read time.
func (r *cartRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Cart, error) {
	upsert := `
		INSERT INTO carts (id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING id, customer_id, created_at, updated_at
	`

	var cart model.Cart
	now := time.Now()
	err := r.pool.QueryRow(ctx, upsert, uuid.New(), customerID, now).Scan(
		&cart.ID, &cart.CustomerID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	linesQuery := `
		SELECT cl.id, cl.cart_id, cl.product_id, cl.variant_id, cl.quantity,
		       COALESCE(v.price, p.price) AS unit_price
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		LEFT JOIN product_variants v ON v.id = cl.variant_id
		WHERE cl.cart_id = $1
		ORDER BY cl.created_at
	`

	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to query cart lines")
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.CartLine
		err := rows.Scan(&line.ID, &line.CartID, &line.ProductID, &line.VariantID, &line.Quantity, &line.UnitPrice)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart line row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return &cart, nil
}

// UpsertLine inserts a line or merges quantity into the existing line for
// the same (product, variant) pair. The unique expression index on
// (cart_id, product_id, variant_id) enforces one line per pair.
func (r *cartRepository) UpsertLine(ctx context.Context, line *model.CartLine) error {
	query := `
		INSERT INTO cart_lines (id, cart_id, product_id, variant_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
	`

	_, err := r.pool.Exec(ctx, query, line.ID, line.CartID, line.ProductID, line.VariantID, line.Quantity, time.Now())
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", line.CartID.String()).
			Str("product_id", line.ProductID.String()).
			Msg("failed to upsert cart line")
		return fmt.Errorf("failed to upsert cart line: %w", err)
	}

	return nil
}

// UpdateLineQuantity sets a line's quantity.
func (r *cartRepository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cart_lines SET quantity = $2 WHERE id = $1`, lineID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to update cart line")
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// DeleteLine removes a single cart line.
func (r *cartRepository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to delete cart line")
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// Clear removes all lines from the cart; the cart row itself persists.
func (r *cartRepository) Clear(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	query := `DELETE FROM cart_lines WHERE cart_id = $1`

	var err error
	if tx != nil {
		_, err = tx.Exec(ctx, query, cartID)
	} else {
		_, err = r.pool.Exec(ctx, query, cartID)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
