package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type CustomerResult struct {
	Found        bool
	Created      bool
	PhoneNo      string
	CustomerName string
	Message      string
}

// GetOrCreateCustomer looks a customer up by phone number and creates the
// row on miss. Created reports whether this call performed the creation.
func (s *Store) GetOrCreateCustomer(ctx context.Context, phoneNo, customerName string) (CustomerResult, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT customer_name FROM customers WHERE phone_no = $1`, phoneNo,
	).Scan(&name)
	if err == nil {
		return CustomerResult{Found: true, PhoneNo: phoneNo, CustomerName: name}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return CustomerResult{}, fmt.Errorf("select customer: %w", err)
	}

	if customerName == "" {
		customerName = "Unknown User"
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO customers (phone_no, customer_name) VALUES ($1, $2)
		 ON CONFLICT (phone_no) DO NOTHING`,
		phoneNo, customerName,
	)
	if err != nil {
		return CustomerResult{}, fmt.Errorf("insert customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost a creation race; the row exists now.
		err := s.pool.QueryRow(ctx,
			`SELECT customer_name FROM customers WHERE phone_no = $1`, phoneNo,
		).Scan(&name)
		if err != nil {
			return CustomerResult{}, fmt.Errorf("reselect customer: %w", err)
		}
		return CustomerResult{Found: true, PhoneNo: phoneNo, CustomerName: name}, nil
	}

	return CustomerResult{
		Found:        true,
		Created:      true,
		PhoneNo:      phoneNo,
		CustomerName: customerName,
	}, nil
}

// EnsureCustomer is the sweeper-facing variant: it only guarantees the row
// exists.
func (s *Store) EnsureCustomer(ctx context.Context, phoneNo, name string) error {
	_, err := s.GetOrCreateCustomer(ctx, phoneNo, name)
	return err
}
