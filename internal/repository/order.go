package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/myatlin/shwecart/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, order_number, owner, delivery_address, delivery_contact, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	createOrderLineSQL = `INSERT INTO order_lines (order_id, position, item_id, item_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderSQL = `SELECT id, order_number, owner, delivery_address, delivery_contact, status, total, created_at
		FROM orders WHERE id = $1`

	getOrderByNumberSQL = `SELECT id, order_number, owner, delivery_address, delivery_contact, status, total, created_at
		FROM orders WHERE order_number = $1`

	listOrdersByOwnerSQL = `SELECT id, order_number, owner, delivery_address, delivery_contact, status, total, created_at
		FROM orders WHERE owner = $1 ORDER BY created_at DESC`

	listOrderLinesSQL = `SELECT item_id, item_name, quantity, unit_price
		FROM order_lines WHERE order_id = $1 ORDER BY position`

	orderNumberExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and its frozen lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.Number, o.Owner, o.DeliveryAddress, o.DeliveryContact,
		string(o.Status), o.Total, o.CreatedAt,
	)
	if err != nil {
		if numberTaken(err) {
			return order.ErrNumberTaken
		}
		return errors.Wrapf(err, "creating order %q", o.ID)
	}

	for i, l := range o.Lines {
		_, err = tx.Exec(ctx, createOrderLineSQL,
			o.ID, i, l.ItemID, l.ItemName, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return errors.Wrapf(err, "creating order line %d", i)
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.get(ctx, getOrderSQL, id)
}

// GetByNumber returns an order by its human-readable number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.get(ctx, getOrderByNumberSQL, number)
}

func (r *OrderRepository) get(ctx context.Context, query, arg string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "getting order")
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting order")
	}

	o.Lines, err = r.lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByOwner returns the owner's orders, newest first, lines included.
func (r *OrderRepository) ListByOwner(ctx context.Context, owner string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByOwnerSQL, owner)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scanning orders")
	}

	for i := range orders {
		orders[i].Lines, err = r.lines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// NumberExists reports whether an order with the given number exists.
func (r *OrderRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, orderNumberExistsSQL, number).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "checking order number")
	}
	return exists, nil
}

// UpdateStatus sets the order's lifecycle state.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return errors.Wrap(err, "updating order status")
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes the order and its lines.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return errors.Wrap(err, "deleting order")
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// numberTaken reports whether err is a unique violation on the order number
// column, meaning a concurrent checkout won the same number.
func numberTaken(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "orders_order_number_key"
}

func (r *OrderRepository) lines(ctx context.Context, orderID string) ([]order.Line, error) {
	rows, err := r.pool.Query(ctx, listOrderLinesSQL, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "loading order lines")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ItemID, &l.ItemName, &l.Quantity, &l.UnitPrice)
		return l, err
	})
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.Owner, &o.DeliveryAddress, &o.DeliveryContact,
		&status, &o.Total, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
