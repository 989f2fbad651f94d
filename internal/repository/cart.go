package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myatlin/shwecart/internal/domain/cart"
)

const (
	getCartByOwnerSQL = `SELECT id, owner FROM carts WHERE owner = $1`

	// The owner uniqueness constraint makes concurrent lazy creation safe:
	// whichever insert loses simply reads the winner's row.
	createCartSQL = `INSERT INTO carts (id, owner) VALUES ($1, $2)
		ON CONFLICT (owner) DO NOTHING`

	listCartLinesSQL = `SELECT item_id, quantity FROM cart_lines
		WHERE cart_id = $1 ORDER BY item_id`

	// Adding to an existing line accumulates; the primary key on
	// (cart_id, item_id) rules out duplicate lines at the storage level.
	addCartLineSQL = `INSERT INTO cart_lines (cart_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, item_id) DO UPDATE
		SET quantity = cart_lines.quantity + EXCLUDED.quantity`

	setCartLineSQL = `UPDATE cart_lines SET quantity = $3
		WHERE cart_id = $1 AND item_id = $2`

	deleteCartLineSQL = `DELETE FROM cart_lines WHERE cart_id = $1 AND item_id = $2`

	clearCartLinesSQL = `DELETE FROM cart_lines WHERE cart_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load returns the owner's cart with its lines, or cart.ErrNotFound.
func (r *CartRepository) Load(ctx context.Context, owner string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartByOwnerSQL, owner).Scan(&c.ID, &c.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "loading cart")
	}

	rows, err := r.pool.Query(ctx, listCartLinesSQL, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "loading cart lines")
	}
	c.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.ItemID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning cart lines")
	}

	return &c, nil
}

// LoadOrCreate returns the owner's cart, creating an empty one when none
// exists yet.
func (r *CartRepository) LoadOrCreate(ctx context.Context, owner string) (*cart.Cart, error) {
	c, err := r.Load(ctx, owner)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, cart.ErrNotFound) {
		return nil, err
	}

	if _, err := r.pool.Exec(ctx, createCartSQL, uuid.New().String(), owner); err != nil {
		return nil, errors.Wrap(err, "creating cart")
	}
	return r.Load(ctx, owner)
}

// AddLine adds delta to the item's quantity, inserting the line when absent.
func (r *CartRepository) AddLine(ctx context.Context, cartID, itemID string, delta int) error {
	if _, err := r.pool.Exec(ctx, addCartLineSQL, cartID, itemID, delta); err != nil {
		return errors.Wrap(err, "adding cart line")
	}
	return nil
}

// SetLine replaces the item's quantity exactly. Returns cart.ErrNotFound
// when the cart holds no line for the item.
func (r *CartRepository) SetLine(ctx context.Context, cartID, itemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, setCartLineSQL, cartID, itemID, quantity)
	if err != nil {
		return errors.Wrap(err, "setting cart line")
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// DeleteLine removes the item's line. Absent lines are a no-op.
func (r *CartRepository) DeleteLine(ctx context.Context, cartID, itemID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartLineSQL, cartID, itemID); err != nil {
		return errors.Wrap(err, "deleting cart line")
	}
	return nil
}

// ClearLines removes every line from the cart. Idempotent.
func (r *CartRepository) ClearLines(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, clearCartLinesSQL, cartID); err != nil {
		return errors.Wrap(err, "clearing cart lines")
	}
	return nil
}
