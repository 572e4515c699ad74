package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type ReturnResult struct {
	Success       bool
	ReturnID      int
	OrderID       int
	ProductName   string
	Size          string
	Quantity      int
	RefundAmount  float64
	Reason        string
	Status        string
	StockRestored bool
	Message       string
}

// ProcessReturn creates a return for the given order, or for the customer's
// most recent order when orderID is zero. Stock is restored by the returned
// quantity unconditionally once the return row is created; both writes
// share one transaction.
func (s *Store) ProcessReturn(ctx context.Context, phoneNo string, orderID int, reason string) (ReturnResult, error) {
	if reason == "" {
		reason = "Customer request"
	}

	var customerName string
	err := s.pool.QueryRow(ctx,
		`SELECT customer_name FROM customers WHERE phone_no = $1`, phoneNo,
	).Scan(&customerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return ReturnResult{
			Message: fmt.Sprintf("No customer found with phone number %s", phoneNo),
		}, nil
	}
	if err != nil {
		return ReturnResult{}, fmt.Errorf("select customer: %w", err)
	}

	if orderID == 0 {
		err := s.pool.QueryRow(ctx, `
			SELECT order_id FROM orders
			WHERE phone_no = $1
			ORDER BY order_date DESC
			LIMIT 1`,
			phoneNo,
		).Scan(&orderID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ReturnResult{Message: "No recent orders found for return"}, nil
		}
		if err != nil {
			return ReturnResult{}, fmt.Errorf("select recent order: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		quantity    int
		productID   int
		productName string
		size        string
		price       float64
	)
	err = tx.QueryRow(ctx, `
		SELECT o.quantity, o.product_id, p.product_name, p.size, p.price
		FROM orders o
		JOIN products p ON o.product_id = p.product_id
		WHERE o.order_id = $1 AND o.phone_no = $2`,
		orderID, phoneNo,
	).Scan(&quantity, &productID, &productName, &size, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return ReturnResult{
			Message: fmt.Sprintf("Order %d not found for this customer", orderID),
		}, nil
	}
	if err != nil {
		return ReturnResult{}, fmt.Errorf("select order: %w", err)
	}

	var returnID int
	err = tx.QueryRow(ctx, `
		INSERT INTO returns (order_id, phone_no, reason)
		VALUES ($1, $2, $3)
		RETURNING return_id`,
		orderID, phoneNo, reason,
	).Scan(&returnID)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("insert return: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET stock_quantity = stock_quantity + $1
		WHERE product_id = $2`,
		quantity, productID,
	)
	if err != nil {
		return ReturnResult{}, fmt.Errorf("restore stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ReturnResult{}, fmt.Errorf("commit: %w", err)
	}

	return ReturnResult{
		Success:       true,
		ReturnID:      returnID,
		OrderID:       orderID,
		ProductName:   productName,
		Size:          size,
		Quantity:      quantity,
		RefundAmount:  float64(quantity) * price,
		Reason:        reason,
		Status:        "Pending",
		StockRestored: true,
	}, nil
}
