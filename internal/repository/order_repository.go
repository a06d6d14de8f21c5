package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// pgUniqueViolation is the postgres error code for unique constraint
// violations; used to detect order-number collisions and duplicate
// shipments.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// orderRepository implements OrderRepository using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const orderColumns = `
	id, order_number, customer_id, coupon_id, status, payment_status,
	refund_status, payment_method, subtotal, tax, shipping_cost, discount,
	total, shipping_address, billing_address, gateway_order_id,
	gateway_payment_id, refund_id, refund_amount, refund_reason, refunded_at,
	tracking_number, weight_kg, shipped_at, delivered_at, created_at, updated_at
`

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.CustomerID, order.CouponID,
		order.Status, order.PaymentStatus, order.RefundStatus, order.PaymentMethod,
		order.Subtotal, order.Tax, order.ShippingCost, order.Discount, order.Total,
		order.ShippingAddress, order.BillingAddress, order.GatewayOrderID,
		order.GatewayPaymentID, order.RefundID, order.RefundAmount, order.RefundReason,
		order.RefundedAt, order.TrackingNumber, order.WeightKg,
		order.ShippedAt, order.DeliveredAt, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if !IsUniqueViolation(err) {
			r.logger.Error().
				Err(err).
				Str("order_number", order.OrderNumber).
				Msg("failed to create order")
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_number", order.OrderNumber).
		Msg("order created")

	return nil
}

// CreateOrderLines inserts order lines within the provided transaction.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (id, order_id, product_id, variant_id,
		                         product_snapshot, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query, line.ID, line.OrderID, line.ProductID, line.VariantID,
			line.ProductSnapshot, line.Quantity, line.UnitPrice, line.TotalPrice)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CouponID, &o.Status,
		&o.PaymentStatus, &o.RefundStatus, &o.PaymentMethod, &o.Subtotal,
		&o.Tax, &o.ShippingCost, &o.Discount, &o.Total, &o.ShippingAddress,
		&o.BillingAddress, &o.GatewayOrderID, &o.GatewayPaymentID, &o.RefundID,
		&o.RefundAmount, &o.RefundReason, &o.RefundedAt, &o.TrackingNumber,
		&o.WeightKg, &o.ShippedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID retrieves an order by its ID along with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderLine, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	linesQuery := `
		SELECT id, order_id, product_id, variant_id, product_snapshot,
		       quantity, unit_price, total_price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, linesQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order lines")
		return nil, nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariantID,
			&line.ProductSnapshot, &line.Quantity, &line.UnitPrice, &line.TotalPrice)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return nil, nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating order lines: %w", err)
	}

	return order, lines, nil
}

// ListByCustomer retrieves a customer's orders, newest first.
func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", customerID.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Update persists the order's mutable fields.
func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, payment_status = $3, refund_status = $4,
		    gateway_order_id = $5, gateway_payment_id = $6, refund_id = $7,
		    refund_amount = $8, refund_reason = $9, refunded_at = $10,
		    tracking_number = $11, shipped_at = $12, delivered_at = $13,
		    updated_at = $14
		WHERE id = $1
	`

	order.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, query,
		order.ID, order.Status, order.PaymentStatus, order.RefundStatus,
		order.GatewayOrderID, order.GatewayPaymentID, order.RefundID,
		order.RefundAmount, order.RefundReason, order.RefundedAt,
		order.TrackingNumber, order.ShippedAt, order.DeliveredAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}
