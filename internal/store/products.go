package store

import (
	"context"
	"fmt"
)

type Product struct {
	ProductID     int
	ProductName   string
	Size          string
	Price         float64
	StockQuantity int
	Available     bool
}

type ProductsResult struct {
	Found         bool
	TotalProducts int
	Products      []Product
	Message       string
}

// FindProducts returns the catalog, optionally filtered by a fuzzy product
// name. The unfiltered catalog hides out-of-stock rows; a name query does
// not, so customers asking about a specific product see its availability.
func (s *Store) FindProducts(ctx context.Context, productName string) (ProductsResult, error) {
	query := `
		SELECT product_id, product_name, size, price, stock_quantity
		FROM products
		WHERE stock_quantity > 0
		ORDER BY product_name, size`
	args := []any{}
	if productName != "" {
		query = `
			SELECT product_id, product_name, size, price, stock_quantity
			FROM products
			WHERE LOWER(product_name) LIKE LOWER($1)
			ORDER BY product_name, size, price`
		args = append(args, "%"+productName+"%")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return ProductsResult{}, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Size, &p.Price, &p.StockQuantity); err != nil {
			return ProductsResult{}, fmt.Errorf("scan product: %w", err)
		}
		p.Available = p.StockQuantity > 0
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return ProductsResult{}, fmt.Errorf("iterate products: %w", err)
	}

	if len(products) == 0 {
		msg := "No products found"
		if productName != "" {
			msg = fmt.Sprintf("No products found for %s", productName)
		}
		return ProductsResult{Message: msg, Products: []Product{}}, nil
	}

	return ProductsResult{
		Found:         true,
		TotalProducts: len(products),
		Products:      products,
	}, nil
}
