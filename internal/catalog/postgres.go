package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool used by PostgresStore.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	upsertProductSQL = `INSERT INTO catalog_products (name, unit, price_cents)
VALUES ($1, $2, $3)
ON CONFLICT (name, unit) DO UPDATE SET price_cents = EXCLUDED.price_cents`

	listProductsSQL = `SELECT name, unit, price_cents FROM catalog_products`
)

// PostgresStore persists catalog prices in the catalog_products table created
// by the embedded migrations.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore constructs a store on top of db.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// AddProduct upserts the unit price of p.
func (s *PostgresStore) AddProduct(ctx context.Context, p Product, priceCents int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("catalog: postgres store not configured")
	}
	if priceCents < 0 {
		return fmt.Errorf("%w: %s costs %d", ErrInvalidPrice, p.Name, priceCents)
	}
	if _, err := s.db.Exec(ctx, upsertProductSQL, p.Name, p.Unit.String(), priceCents); err != nil {
		return fmt.Errorf("catalog: upsert %s: %w", p.Name, err)
	}
	return nil
}

// Snapshot loads every stored product into a Memory catalog.
func (s *PostgresStore) Snapshot(ctx context.Context) (*Memory, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("catalog: postgres store not configured")
	}
	rows, err := s.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	mem := NewMemory()
	for rows.Next() {
		var (
			name  string
			unit  string
			price int64
		)
		if err := rows.Scan(&name, &unit, &price); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		u, err := ParseUnit(unit)
		if err != nil {
			return nil, err
		}
		if err := mem.AddProduct(Product{Name: name, Unit: u}, price); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return mem, nil
}
