package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema applies the production schema file to the test database.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	schema, err := os.ReadFile(filepath.Join("..", "..", "scripts", "schema.sql"))
	if err != nil {
		t.Fatalf("failed to read schema file: %v", err)
	}

	if _, err := pool.Exec(context.Background(), string(schema)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedProduct inserts one purchasable product and returns it.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name, sku string, price string) *model.Product {
	t.Helper()

	p := &model.Product{
		ID:      uuid.New(),
		Name:    name,
		SKU:     sku,
		Price:   decimal.RequireFromString(price),
		Active:  true,
		InStock: true,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, sku, description, price, active, in_stock)
		 VALUES ($1, $2, $3, '', $4, $5, $6)`,
		p.ID, p.Name, p.SKU, p.Price, p.Active, p.InStock,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", sku, err)
	}

	return p
}

// SeedCoupon inserts a coupon and returns it.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, coupon *model.Coupon) *model.Coupon {
	t.Helper()

	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO coupons (id, code, discount_type, discount_value, min_order_amount,
		                      max_discount_amount, valid_from, valid_until, usage_limit, usage_count, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.MinOrderAmount,
		coupon.MaxDiscountAmount, coupon.ValidFrom, coupon.ValidUntil, coupon.UsageLimit, coupon.UsageCount, coupon.Active,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", coupon.Code, err)
	}

	return coupon
}

// CleanupDB removes all data from the test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"shipments", "order_lines", "orders", "cart_lines", "carts", "coupons", "product_variants", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
