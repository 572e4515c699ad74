package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type Order struct {
	OrderID     int
	Quantity    int
	OrderDate   time.Time
	Status      string
	ProductName string
	Size        string
	UnitPrice   float64
	TotalAmount float64
}

type OrdersResult struct {
	Found        bool
	CustomerName string
	PhoneNo      string
	OrderCount   int
	Orders       []Order
	Message      string
}

type OrderResult struct {
	Success      bool
	OrderID      int
	CustomerName string
	PhoneNo      string
	ProductName  string
	Size         string
	Quantity     int
	UnitPrice    float64
	TotalAmount  float64
	Status       string
	Message      string
}

// CheckOrderStatus lists a customer's orders newest-first with product
// details and line totals.
func (s *Store) CheckOrderStatus(ctx context.Context, phoneNo string) (OrdersResult, error) {
	var customerName string
	err := s.pool.QueryRow(ctx,
		`SELECT customer_name FROM customers WHERE phone_no = $1`, phoneNo,
	).Scan(&customerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrdersResult{
			Message: fmt.Sprintf("No customer found with phone number %s", phoneNo),
		}, nil
	}
	if err != nil {
		return OrdersResult{}, fmt.Errorf("select customer: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT o.order_id, o.quantity, o.order_date, o.status,
		       p.product_name, p.size, p.price
		FROM orders o
		JOIN products p ON o.product_id = p.product_id
		WHERE o.phone_no = $1
		ORDER BY o.order_date DESC`,
		phoneNo,
	)
	if err != nil {
		return OrdersResult{}, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.OrderID, &o.Quantity, &o.OrderDate, &o.Status,
			&o.ProductName, &o.Size, &o.UnitPrice); err != nil {
			return OrdersResult{}, fmt.Errorf("scan order: %w", err)
		}
		o.TotalAmount = float64(o.Quantity) * o.UnitPrice
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return OrdersResult{}, fmt.Errorf("iterate orders: %w", err)
	}

	result := OrdersResult{
		Found:        true,
		CustomerName: customerName,
		PhoneNo:      phoneNo,
		OrderCount:   len(orders),
		Orders:       orders,
	}
	if len(orders) == 0 {
		result.Message = "No orders found for this customer"
	}
	return result, nil
}

// PlaceOrder resolves a product by fuzzy name and exact size, checks stock
// and writes the order row and the stock decrement in one transaction. The
// product row is locked for the duration so concurrent orders cannot
// oversell. "Not found" and "insufficient stock" are user-visible result
// states, not errors.
func (s *Store) PlaceOrder(ctx context.Context, phoneNo, productName, size string, quantity int, customerName string) (OrderResult, error) {
	customer, err := s.GetOrCreateCustomer(ctx, phoneNo, customerName)
	if err != nil {
		return OrderResult{}, fmt.Errorf("resolve customer: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return OrderResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		productID int
		name      string
		prodSize  string
		price     float64
		stock     int
	)
	err = tx.QueryRow(ctx, `
		SELECT product_id, product_name, size, price, stock_quantity
		FROM products
		WHERE LOWER(product_name) LIKE LOWER($1) AND LOWER(size) = LOWER($2)
		FOR UPDATE`,
		"%"+productName+"%", size,
	).Scan(&productID, &name, &prodSize, &price, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderResult{
			Message: fmt.Sprintf("Product '%s' with size '%s' not found", productName, size),
		}, nil
	}
	if err != nil {
		return OrderResult{}, fmt.Errorf("select product: %w", err)
	}

	if stock < quantity {
		return OrderResult{
			Message: fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", stock, quantity),
		}, nil
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (phone_no, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING order_id`,
		phoneNo, productID, quantity,
	).Scan(&orderID)
	if err != nil {
		return OrderResult{}, fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $1
		WHERE product_id = $2`,
		quantity, productID,
	)
	if err != nil {
		return OrderResult{}, fmt.Errorf("decrement stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return OrderResult{}, fmt.Errorf("commit: %w", err)
	}

	return OrderResult{
		Success:      true,
		OrderID:      orderID,
		CustomerName: customer.CustomerName,
		PhoneNo:      phoneNo,
		ProductName:  name,
		Size:         prodSize,
		Quantity:     quantity,
		UnitPrice:    price,
		TotalAmount:  float64(quantity) * price,
		Status:       "Placed",
	}, nil
}
