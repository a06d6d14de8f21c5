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

// shipmentRepository implements ShipmentRepository using PostgreSQL.
type shipmentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShipmentRepository creates a new PostgreSQL-backed shipment repository.
func NewShipmentRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShipmentRepository {
	return &shipmentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shipment").Logger(),
	}
}

const shipmentColumns = `
	id, order_id, external_order_id, external_shipment_id, awb_code,
	carrier_id, carrier_name, status, tracking_url, label_url,
	archived_label_url, raw_status, created_at, updated_at
`

// Create inserts a shipment. The unique constraint on order_id is the
// concurrency backstop against duplicate shipment creation.
func (r *shipmentRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	query := `
		INSERT INTO shipments (` + shipmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		shipment.ID, shipment.OrderID, shipment.ExternalOrderID,
		shipment.ExternalShipmentID, shipment.AWBCode, shipment.CarrierID,
		shipment.CarrierName, shipment.Status, shipment.TrackingURL,
		shipment.LabelURL, shipment.ArchivedLabelURL, shipment.RawStatus,
		shipment.CreatedAt, shipment.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return model.ErrShipmentExists
		}
		r.logger.Error().Err(err).Str("order_id", shipment.OrderID.String()).Msg("failed to create shipment")
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	r.logger.Debug().
		Str("order_id", shipment.OrderID.String()).
		Str("awb_code", shipment.AWBCode).
		Msg("shipment created")

	return nil
}

func scanShipment(row pgx.Row) (*model.Shipment, error) {
	var s model.Shipment
	err := row.Scan(
		&s.ID, &s.OrderID, &s.ExternalOrderID, &s.ExternalShipmentID,
		&s.AWBCode, &s.CarrierID, &s.CarrierName, &s.Status, &s.TrackingURL,
		&s.LabelURL, &s.ArchivedLabelURL, &s.RawStatus, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a shipment by its ID.
func (r *shipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id = $1`

	shipment, err := scanShipment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("shipment_id", id.String()).Msg("failed to query shipment")
		return nil, fmt.Errorf("failed to query shipment: %w", err)
	}

	return shipment, nil
}

// GetByOrderID retrieves the shipment for an order.
func (r *shipmentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE order_id = $1`

	shipment, err := scanShipment(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query shipment")
		return nil, fmt.Errorf("failed to query shipment: %w", err)
	}

	return shipment, nil
}

// Update persists the shipment's mutable fields.
func (r *shipmentRepository) Update(ctx context.Context, shipment *model.Shipment) error {
	query := `
		UPDATE shipments
		SET status = $2, tracking_url = $3, label_url = $4,
		    archived_label_url = $5, raw_status = $6, updated_at = $7
		WHERE id = $1
	`

	shipment.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, query,
		shipment.ID, shipment.Status, shipment.TrackingURL, shipment.LabelURL,
		shipment.ArchivedLabelURL, shipment.RawStatus, shipment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("shipment_id", shipment.ID.String()).Msg("failed to update shipment")
		return fmt.Errorf("failed to update shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShipmentNotFound
	}

	return nil
}
