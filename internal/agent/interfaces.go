package agent

import (
	"context"

	"github.com/helioretail/concierge/internal/search"
	"github.com/helioretail/concierge/internal/store"
)

// Completer is the opaque language-model capability: text in, text out.
// Tests substitute a deterministic stub.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CatalogStore is the slice of the relational store the router and
// handlers consume.
type CatalogStore interface {
	FindProducts(ctx context.Context, productName string) (store.ProductsResult, error)
	GetOrCreateCustomer(ctx context.Context, phoneNo, customerName string) (store.CustomerResult, error)
	PlaceOrder(ctx context.Context, phoneNo, productName, size string, quantity int, customerName string) (store.OrderResult, error)
	CheckOrderStatus(ctx context.Context, phoneNo string) (store.OrdersResult, error)
	ProcessReturn(ctx context.Context, phoneNo string, orderID int, reason string) (store.ReturnResult, error)
}

// Comparer is the external comparison lookup: query in, ranked snippets out.
type Comparer interface {
	Compare(ctx context.Context, query string) (search.ComparisonResult, error)
}
