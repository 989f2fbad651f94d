package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myatlin/shwecart/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT id, name, price, brand, category
		FROM items ORDER BY id`

	getItemByIDSQL = `SELECT id, name, price, brand, category
		FROM items WHERE id = $1`

	getItemsByIDsSQL = `SELECT id, name, price, brand, category
		FROM items WHERE id = ANY($1)`

	upsertItemSQL = `INSERT INTO items (id, name, price, brand, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category`
)

var _ catalog.Repository = (*ItemRepository)(nil)

// ItemRepository implements catalog.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns the full catalog ordered by ID.
func (r *ItemRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, collabErr(err, catalog.ErrUnavailable, "listing items")
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetByID returns a single catalog item by its identifier.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByIDSQL, id)
	if err != nil {
		return nil, collabErr(err, catalog.ErrUnavailable, "getting item")
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, collabErr(err, catalog.ErrUnavailable, "getting item")
	}
	return &item, nil
}

// GetByIDs returns catalog items matching any of the given IDs. Missing IDs
// are simply absent from the result; the pricing engine treats them as
// unavailable lines.
func (r *ItemRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemsByIDsSQL, ids)
	if err != nil {
		return nil, collabErr(err, catalog.ErrUnavailable, "getting items by ids")
	}
	return pgx.CollectRows(rows, scanItem)
}

// Upsert inserts or replaces a catalog item. Used by the seed command; the
// pricing core only reads the catalog.
func (r *ItemRepository) Upsert(ctx context.Context, it *catalog.Item) error {
	_, err := r.pool.Exec(ctx, upsertItemSQL, it.ID, it.Name, it.Price, it.Brand, it.Category)
	if err != nil {
		return errors.Wrapf(err, "upserting item %q", it.ID)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var it catalog.Item
	err := row.Scan(&it.ID, &it.Name, &it.Price, &it.Brand, &it.Category)
	return it, err
}
