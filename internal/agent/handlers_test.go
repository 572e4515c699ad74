package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/helioretail/concierge/internal/search"
	"github.com/helioretail/concierge/internal/store"
)

func testRequest(message string) TurnRequest {
	return TurnRequest{
		Message: message,
		PhoneNo: "+14155550100",
		Customer: store.CustomerResult{
			Found:        true,
			PhoneNo:      "+14155550100",
			CustomerName: "Dana",
		},
		ChatContext: "No previous conversation history.",
	}
}

func TestProductDetailsFiltersByProductKeyword(t *testing.T) {
	s := newFakeStore()
	s.products = nikeProducts()
	llm := &scriptedCompleter{responses: []string{"Here are our Nike shoes."}}
	h := NewProductDetailsHandler(s, llm, testLogger())

	reply, err := h.Handle(context.Background(), testRequest("Show me Nike shoes"))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply != "Here are our Nike shoes." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(s.findCalls) != 1 || s.findCalls[0] != "nike" {
		t.Errorf("expected a filtered query for nike, got %v", s.findCalls)
	}

	prompt := llm.lastSystemPrompt()
	if !strings.Contains(prompt, "Nike Running Shoes (42)") {
		t.Errorf("expected product listing in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Stock: 5 units (Available)") {
		t.Errorf("expected availability line in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Stock: 0 units (Out of Stock)") {
		t.Errorf("expected out-of-stock line in prompt, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Customer: Dana") {
		t.Errorf("expected customer name in prompt, got:\n%s", prompt)
	}
}

func TestProductDetailsFullCatalogWhenNoKeywordMatches(t *testing.T) {
	s := newFakeStore()
	s.products = nikeProducts()
	llm := &scriptedCompleter{responses: []string{"Here is our catalog."}}
	h := NewProductDetailsHandler(s, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("What do you sell?")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(s.findCalls) != 1 || s.findCalls[0] != "" {
		t.Errorf("expected an unfiltered catalog query, got %v", s.findCalls)
	}
}

func TestProductDetailsStoreFailureStaysInsideReply(t *testing.T) {
	s := newFakeStore()
	s.findErr = errors.New("connection refused")
	llm := &scriptedCompleter{responses: []string{"Sorry, nothing to show."}}
	h := NewProductDetailsHandler(s, llm, testLogger())

	reply, err := h.Handle(context.Background(), testRequest("show me ipads"))
	if err != nil {
		t.Fatalf("store failure must not escape the handler: %v", err)
	}
	if reply != "Sorry, nothing to show." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if !strings.Contains(llm.lastSystemPrompt(), "No products found or unable to retrieve product information.") {
		t.Errorf("expected fallback summary in prompt, got:\n%s", llm.lastSystemPrompt())
	}
}

func TestInventoryOrderStatusBranch(t *testing.T) {
	s := newFakeStore()
	s.orders = store.OrdersResult{
		Found:        true,
		CustomerName: "Dana",
		OrderCount:   1,
		Orders: []store.Order{
			{OrderID: 7, ProductName: "Levi's T-Shirt", Size: "M", Quantity: 2, TotalAmount: 59.98, Status: "Placed"},
		},
	}
	llm := &scriptedCompleter{responses: []string{"You have one order."}}
	h := NewInventoryHandler(s, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("what's my order status?")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	prompt := llm.lastSystemPrompt()
	if !strings.Contains(prompt, "ORDER STATUS for Dana:") {
		t.Errorf("expected order status summary, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Order #7") || !strings.Contains(prompt, "Total: $59.98") {
		t.Errorf("expected order detail lines, got:\n%s", prompt)
	}
}

func TestInventoryReturnBranch(t *testing.T) {
	s := newFakeStore()
	s.returnResult = store.ReturnResult{
		Success:      true,
		ReturnID:     3,
		OrderID:      7,
		ProductName:  "Levi's T-Shirt",
		Size:         "M",
		Quantity:     2,
		RefundAmount: 59.98,
		Status:       "Pending",
		Reason:       "Customer request",
	}
	llm := &scriptedCompleter{responses: []string{"Your return is underway."}}
	h := NewInventoryHandler(s, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("I want to return my last order")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	prompt := llm.lastSystemPrompt()
	if !strings.Contains(prompt, "RETURN PROCESSED:") {
		t.Errorf("expected return summary, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Refund Amount: $59.98") {
		t.Errorf("expected refund line, got:\n%s", prompt)
	}
}

func TestInventoryPlaceOrderResolvesLeviMedium(t *testing.T) {
	s := newFakeStore()
	s.placeResult = store.OrderResult{
		Success:     true,
		OrderID:     11,
		ProductName: "Levi's T-Shirt",
		Size:        "M",
		Quantity:    1,
		UnitPrice:   29.99,
		TotalAmount: 29.99,
		Status:      "Placed",
	}
	llm := &scriptedCompleter{responses: []string{"Order placed."}}
	h := NewInventoryHandler(s, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("I want to buy a Levi's t-shirt in size m")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(s.placeCalls) != 1 {
		t.Fatalf("expected 1 PlaceOrder call, got %d", len(s.placeCalls))
	}
	call := s.placeCalls[0]
	if call.productName != "Levi's T-Shirt" || call.size != "M" || call.quantity != 1 {
		t.Errorf("unexpected PlaceOrder call: %+v", call)
	}
	if !strings.Contains(llm.lastSystemPrompt(), "ORDER PLACED SUCCESSFULLY:") {
		t.Errorf("expected success summary in prompt")
	}
}

func TestInventoryPlaceOrderUnknownProductAsksForDetails(t *testing.T) {
	s := newFakeStore()
	llm := &scriptedCompleter{responses: []string{"Which product would you like?"}}
	h := NewInventoryHandler(s, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("I want to buy a jacket")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(s.placeCalls) != 0 {
		t.Errorf("expected no PlaceOrder call, got %d", len(s.placeCalls))
	}
	if !strings.Contains(llm.lastSystemPrompt(), "PLACE ORDER: Please specify the product name and size you want to order.") {
		t.Errorf("expected specify-product message in prompt, got:\n%s", llm.lastSystemPrompt())
	}
}

func TestInventoryStoreFailureStaysInsideReply(t *testing.T) {
	s := newFakeStore()
	s.placeErr = errors.New("deadlock detected")
	llm := &scriptedCompleter{responses: []string{"Something went wrong, please retry."}}
	h := NewInventoryHandler(s, llm, testLogger())

	reply, err := h.Handle(context.Background(), testRequest("buy nike shoes size 42"))
	if err != nil {
		t.Fatalf("store failure must not escape the handler: %v", err)
	}
	if reply != "Something went wrong, please retry." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if !strings.Contains(llm.lastSystemPrompt(), "ORDER ERROR: Unable to place the order right now.") {
		t.Errorf("expected order error summary in prompt, got:\n%s", llm.lastSystemPrompt())
	}
}

func TestInventoryHelpMenuFallback(t *testing.T) {
	s := newFakeStore()
	llm := &scriptedCompleter{responses: []string{"Here is what I can do."}}
	h := NewInventoryHandler(s, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("inventory stuff please")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(llm.lastSystemPrompt(), "I can help you with:") {
		t.Errorf("expected help menu in prompt, got:\n%s", llm.lastSystemPrompt())
	}
}

func TestComparisonIncludesExternalResults(t *testing.T) {
	s := newFakeStore()
	comparer := &fakeComparer{result: search.ComparisonResult{
		Success:     true,
		Query:       "nike vs adidas comparison review features specs vs differences",
		ResultCount: 2,
		Results: []search.Result{
			{Title: "Nike vs Adidas", Snippet: "A detailed look.", Source: "example.com"},
			{Title: "Runner's verdict", Snippet: "Both are fine."},
		},
	}}
	llm := &scriptedCompleter{responses: []string{"Here is the comparison."}}
	h := NewComparisonHandler(s, comparer, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("nike vs adidas")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(comparer.calls) != 1 || comparer.calls[0] != "nike vs adidas" {
		t.Errorf("expected comparer called with raw message, got %v", comparer.calls)
	}
	prompt := llm.lastSystemPrompt()
	if !strings.Contains(prompt, "EXTERNAL COMPARISON RESULTS") {
		t.Errorf("expected external results header, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "1. Nike vs Adidas") || !strings.Contains(prompt, "Source: example.com") {
		t.Errorf("expected numbered sources, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "OUR AVAILABLE PRODUCTS:") {
		t.Errorf("non-electronics query must not pull the internal catalog")
	}
}

func TestComparisonUnavailableMessageSurfacesVerbatim(t *testing.T) {
	s := newFakeStore()
	comparer := &fakeComparer{result: search.ComparisonResult{
		Success: false,
		Message: "Product comparison service is currently unavailable",
	}}
	llm := &scriptedCompleter{responses: []string{"I can't compare right now."}}
	h := NewComparisonHandler(s, comparer, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("compare puma vs adidas")); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(llm.lastSystemPrompt(), "COMPARISON ERROR: Product comparison service is currently unavailable") {
		t.Errorf("expected verbatim unavailable message, got:\n%s", llm.lastSystemPrompt())
	}
}

func TestComparisonElectronicsPullsInternalCatalog(t *testing.T) {
	s := newFakeStore()
	s.products = store.ProductsResult{
		Found:         true,
		TotalProducts: 6,
		Products: []store.Product{
			{ProductName: "iPhone 15", Size: "128GB", Price: 799},
			{ProductName: "iPhone 15", Size: "256GB", Price: 899},
			{ProductName: "MacBook Air", Size: "13in", Price: 1099},
			{ProductName: "iPad", Size: "64GB", Price: 449},
			{ProductName: "AirPods Pro", Size: "One Size", Price: 249},
			{ProductName: "Nike Running Shoes", Size: "42", Price: 129.99},
		},
	}
	comparer := &fakeComparer{err: errors.New("timeout")}
	llm := &scriptedCompleter{responses: []string{"Here is what we carry."}}
	h := NewComparisonHandler(s, comparer, llm, testLogger())

	if _, err := h.Handle(context.Background(), testRequest("iphone vs macbook")); err != nil {
		t.Fatalf("comparer failure must not escape the handler: %v", err)
	}
	prompt := llm.lastSystemPrompt()
	if !strings.Contains(prompt, "COMPARISON ERROR: Unable to fetch comparison data") {
		t.Errorf("expected lookup failure summary, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "OUR AVAILABLE PRODUCTS:") {
		t.Errorf("expected internal catalog for electronics query, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "Nike Running Shoes") {
		t.Errorf("internal catalog must be capped at %d products", maxInternalProducts)
	}
}
