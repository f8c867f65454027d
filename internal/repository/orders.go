package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-relay/internal/model"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when an order id does not exist (or was deleted).
var ErrNotFound = errors.New("order not found")

// OrdersRepository defines persistence for the orders table. Every write
// commits atomically; the orders_notify trigger emits the change
// notification as part of the same commit, so callers never publish
// events themselves.
type OrdersRepository interface {
	List(ctx context.Context) ([]model.Order, error)
	Create(ctx context.Context, customerName, productName, status string) (model.Order, error)
	Update(ctx context.Context, id int64, patch model.OrderPatch) (model.Order, error)
	Delete(ctx context.Context, id int64) (model.Order, error)
}

type OrdersRepositoryImpl struct {
	db *sqlx.DB
}

func NewOrdersRepository(db *sqlx.DB) *OrdersRepositoryImpl {
	return &OrdersRepositoryImpl{db: db}
}

// List returns every order, most recently touched first.
func (r *OrdersRepositoryImpl) List(ctx context.Context) ([]model.Order, error) {
	const q = `
		SELECT id, customer_name, product_name, status, updated_at
		FROM orders
		ORDER BY updated_at DESC
	`
	orders := []model.Order{}
	if err := r.db.SelectContext(ctx, &orders, q); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Create inserts a new order with a server-assigned timestamp. An empty
// status defaults to "pending".
func (r *OrdersRepositoryImpl) Create(ctx context.Context, customerName, productName, status string) (model.Order, error) {
	const q = `
		INSERT INTO orders (customer_name, product_name, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, customer_name, product_name, status, updated_at
	`
	var o model.Order
	err := r.db.GetContext(ctx, &o, q, customerName, productName, model.NormalizeStatus(status))
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// Update overwrites only the fields present in the patch and refreshes
// updated_at unconditionally, so an empty patch still bumps recency and
// emits a change event.
func (r *OrdersRepositoryImpl) Update(ctx context.Context, id int64, patch model.OrderPatch) (model.Order, error) {
	const q = `
		UPDATE orders SET
			customer_name = COALESCE($1, customer_name),
			product_name  = COALESCE($2, product_name),
			status        = COALESCE($3, status),
			updated_at    = NOW()
		WHERE id = $4
		RETURNING id, customer_name, product_name, status, updated_at
	`
	var o model.Order
	err := r.db.GetContext(ctx, &o, q, patch.CustomerName, patch.ProductName, patch.Status, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	return o, nil
}

// Delete removes the order and returns its last state.
func (r *OrdersRepositoryImpl) Delete(ctx context.Context, id int64) (model.Order, error) {
	const q = `
		DELETE FROM orders
		WHERE id = $1
		RETURNING id, customer_name, product_name, status, updated_at
	`
	var o model.Order
	err := r.db.GetContext(ctx, &o, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("delete order %d: %w", id, err)
	}
	return o, nil
}
