package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/helioretail/concierge/internal/search"
	"github.com/helioretail/concierge/internal/session"
	"github.com/helioretail/concierge/internal/store"
)

// scriptedCompleter returns canned responses in call order and records
// every prompt for verification.
type scriptedCompleter struct {
	responses []string
	err       error
	calls     []completerCall
}

type completerCall struct {
	system string
	user   string
}

func (s *scriptedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.calls = append(s.calls, completerCall{system: system, user: user})
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", fmt.Errorf("no scripted response for call %d", len(s.calls))
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

// lastSystemPrompt returns the system prompt of the most recent call.
func (s *scriptedCompleter) lastSystemPrompt() string {
	if len(s.calls) == 0 {
		return ""
	}
	return s.calls[len(s.calls)-1].system
}

type placeCall struct {
	productName string
	size        string
	quantity    int
}

type fakeStore struct {
	customers map[string]string

	products store.ProductsResult
	findErr  error
	findCalls []string

	orders    store.OrdersResult
	ordersErr error

	placeResult store.OrderResult
	placeErr    error
	placeCalls  []placeCall

	returnResult store.ReturnResult
	returnErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{customers: make(map[string]string)}
}

func (f *fakeStore) FindProducts(ctx context.Context, productName string) (store.ProductsResult, error) {
	f.findCalls = append(f.findCalls, productName)
	if f.findErr != nil {
		return store.ProductsResult{}, f.findErr
	}
	return f.products, nil
}

func (f *fakeStore) GetOrCreateCustomer(ctx context.Context, phoneNo, customerName string) (store.CustomerResult, error) {
	if name, ok := f.customers[phoneNo]; ok {
		return store.CustomerResult{Found: true, PhoneNo: phoneNo, CustomerName: name}, nil
	}
	if customerName == "" {
		customerName = "Unknown User"
	}
	f.customers[phoneNo] = customerName
	return store.CustomerResult{Found: true, Created: true, PhoneNo: phoneNo, CustomerName: customerName}, nil
}

func (f *fakeStore) PlaceOrder(ctx context.Context, phoneNo, productName, size string, quantity int, customerName string) (store.OrderResult, error) {
	f.placeCalls = append(f.placeCalls, placeCall{productName: productName, size: size, quantity: quantity})
	if f.placeErr != nil {
		return store.OrderResult{}, f.placeErr
	}
	return f.placeResult, nil
}

func (f *fakeStore) CheckOrderStatus(ctx context.Context, phoneNo string) (store.OrdersResult, error) {
	if f.ordersErr != nil {
		return store.OrdersResult{}, f.ordersErr
	}
	return f.orders, nil
}

func (f *fakeStore) ProcessReturn(ctx context.Context, phoneNo string, orderID int, reason string) (store.ReturnResult, error) {
	if f.returnErr != nil {
		return store.ReturnResult{}, f.returnErr
	}
	return f.returnResult, nil
}

type fakeComparer struct {
	result search.ComparisonResult
	err    error
	calls  []string
}

func (f *fakeComparer) Compare(ctx context.Context, query string) (search.ComparisonResult, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return search.ComparisonResult{}, f.err
	}
	return f.result, nil
}

// memKV mirrors the in-memory KV used by the session package tests.
type memKV struct {
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Del(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type fakeSnapshotSource struct {
	recent *session.ArchivedConversation
	calls  int
}

func (f *fakeSnapshotSource) LoadRecentConversation(ctx context.Context, phoneNo string, limit int) (*session.ArchivedConversation, error) {
	f.calls++
	return f.recent, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(kv session.KV, snap session.SnapshotSource) *session.Cache {
	return session.NewCache(kv, snap, nil, 30*time.Minute, testLogger())
}

func nikeProducts() store.ProductsResult {
	return store.ProductsResult{
		Found:         true,
		TotalProducts: 2,
		Products: []store.Product{
			{ProductID: 1, ProductName: "Nike Running Shoes", Size: "42", Price: 129.99, StockQuantity: 5, Available: true},
			{ProductID: 2, ProductName: "Nike Running Shoes", Size: "44", Price: 129.99, StockQuantity: 0},
		},
	}
}
