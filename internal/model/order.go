package model

import (
	"strings"
	"time"
)

// StatusPending is applied to every order created without an explicit status.
const StatusPending = "pending"

// Order is the DB entity persisted in the orders table.
type Order struct {
	ID           int64     `db:"id" json:"id"`
	CustomerName string    `db:"customer_name" json:"customer_name"`
	ProductName  string    `db:"product_name" json:"product_name"`
	Status       string    `db:"status" json:"status"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizeStatus trims the input and falls back to "pending" when empty.
func NormalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusPending
	}
	return s
}

// OrderPatch carries an optional subset of mutable order fields.
// A nil field means "leave the stored value unchanged".
type OrderPatch struct {
	CustomerName *string `json:"customer_name"`
	ProductName  *string `json:"product_name"`
	Status       *string `json:"status"`
}

// Empty reports whether the patch carries no fields at all. An empty
// patch is still a valid update: it bumps updated_at (touch semantics).
func (p OrderPatch) Empty() bool {
	return p.CustomerName == nil && p.ProductName == nil && p.Status == nil
}
