package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// maxOrdersShown caps how many recent orders appear in a status summary.
const maxOrdersShown = 3

var (
	statusKeywords = []string{"order status", "check order", "my orders", "track"}
	returnKeywords = []string{"return", "refund", "send back"}
	buyKeywords    = []string{"buy", "order", "purchase", "want to buy"}
)

// InventoryHandler covers order status, order placement and returns. The
// keyword table decides which structured store operation runs; its result
// is summarized and handed to the language model for phrasing. Store
// faults become user-visible summary lines here and never escape as
// errors.
type InventoryHandler struct {
	store  CatalogStore
	llm    Completer
	logger *slog.Logger
}

func NewInventoryHandler(s CatalogStore, llm Completer, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{store: s, llm: llm, logger: logger}
}

func (h *InventoryHandler) Handle(ctx context.Context, req TurnRequest) (string, error) {
	lower := strings.ToLower(req.Message)

	var operationResult string
	switch {
	case containsAny(lower, statusKeywords):
		operationResult = h.orderStatus(ctx, req)
	case containsAny(lower, returnKeywords):
		operationResult = h.processReturn(ctx, req)
	case containsAny(lower, buyKeywords):
		operationResult = h.placeOrder(ctx, req, lower)
	default:
		operationResult = "I can help you with:\n- Checking order status\n- Placing new orders\n- Processing returns\n\nWhat would you like to do?"
	}

	systemPrompt := fmt.Sprintf(`You are an Inventory Management Specialist for our e-commerce store.

CHAT CONTEXT:
%s

OPERATION RESULT:
%s

Customer Info: %s (%s)

Your role:
- Help customers with order placement, tracking, and returns
- Provide clear order status information
- Process return requests professionally
- Be empathetic with order issues

Respond to the customer's request based on the operation result above.`,
		req.ChatContext, operationResult, customerDisplayName(req.Customer, "Unknown"), req.PhoneNo)

	reply, err := h.llm.Complete(ctx, systemPrompt, req.Message)
	if err != nil {
		return "", fmt.Errorf("inventory reply: %w", err)
	}
	return reply, nil
}

func (h *InventoryHandler) orderStatus(ctx context.Context, req TurnRequest) string {
	orders, err := h.store.CheckOrderStatus(ctx, req.PhoneNo)
	if err != nil {
		h.logger.Error("order status query failed", "phone_no", req.PhoneNo, "error", err)
		return "ORDER STATUS ERROR: Unable to check orders right now. Please try again."
	}
	if !orders.Found {
		return fmt.Sprintf("ORDER STATUS: %s", orders.Message)
	}
	if orders.OrderCount == 0 {
		return fmt.Sprintf("ORDER STATUS: %s", orders.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ORDER STATUS for %s:\n", orders.CustomerName)
	fmt.Fprintf(&b, "Total Orders: %d\n\n", orders.OrderCount)
	shown := orders.Orders
	if len(shown) > maxOrdersShown {
		shown = shown[:maxOrdersShown]
	}
	for _, o := range shown {
		fmt.Fprintf(&b, "Order #%d\n", o.OrderID)
		fmt.Fprintf(&b, "   Product: %s (%s)\n", o.ProductName, o.Size)
		fmt.Fprintf(&b, "   Quantity: %d\n", o.Quantity)
		fmt.Fprintf(&b, "   Total: $%.2f\n", o.TotalAmount)
		fmt.Fprintf(&b, "   Status: %s\n", o.Status)
		fmt.Fprintf(&b, "   Date: %s\n\n", o.OrderDate.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func (h *InventoryHandler) processReturn(ctx context.Context, req TurnRequest) string {
	ret, err := h.store.ProcessReturn(ctx, req.PhoneNo, 0, "Customer request")
	if err != nil {
		h.logger.Error("return failed", "phone_no", req.PhoneNo, "error", err)
		return "RETURN ERROR: Unable to process the return right now. Please try again."
	}
	if !ret.Success {
		return fmt.Sprintf("RETURN ERROR: %s", ret.Message)
	}

	var b strings.Builder
	b.WriteString("RETURN PROCESSED:\n")
	fmt.Fprintf(&b, "Return ID: #%d\n", ret.ReturnID)
	fmt.Fprintf(&b, "Order ID: #%d\n", ret.OrderID)
	fmt.Fprintf(&b, "Product: %s (%s)\n", ret.ProductName, ret.Size)
	fmt.Fprintf(&b, "Quantity: %d\n", ret.Quantity)
	fmt.Fprintf(&b, "Refund Amount: $%.2f\n", ret.RefundAmount)
	fmt.Fprintf(&b, "Status: %s\n", ret.Status)
	fmt.Fprintf(&b, "Reason: %s\n", ret.Reason)
	return b.String()
}

func (h *InventoryHandler) placeOrder(ctx context.Context, req TurnRequest, lower string) string {
	// Only the two product families with known sizes can be auto-resolved
	// from free text; everything else needs the customer to spell it out.
	var productName, size string
	switch {
	case strings.Contains(lower, "levi") && strings.Contains(lower, "t-shirt"):
		productName = "Levi's T-Shirt"
		size = "L"
		if strings.Contains(lower, " m ") || strings.HasSuffix(lower, " m") {
			size = "M"
		}
	case strings.Contains(lower, "nike") && strings.Contains(lower, "shoes"):
		productName = "Nike Running Shoes"
		size = "44"
		if strings.Contains(lower, "42") {
			size = "42"
		}
	default:
		return "PLACE ORDER: Please specify the product name and size you want to order."
	}

	order, err := h.store.PlaceOrder(ctx, req.PhoneNo, productName, size, 1, req.Customer.CustomerName)
	if err != nil {
		h.logger.Error("order placement failed", "phone_no", req.PhoneNo, "product", productName, "error", err)
		return "ORDER ERROR: Unable to place the order right now. Please try again."
	}
	if !order.Success {
		return fmt.Sprintf("ORDER ERROR: %s", order.Message)
	}

	var b strings.Builder
	b.WriteString("ORDER PLACED SUCCESSFULLY:\n")
	fmt.Fprintf(&b, "Order ID: #%d\n", order.OrderID)
	fmt.Fprintf(&b, "Product: %s (%s)\n", order.ProductName, order.Size)
	fmt.Fprintf(&b, "Quantity: %d\n", order.Quantity)
	fmt.Fprintf(&b, "Unit Price: $%.2f\n", order.UnitPrice)
	fmt.Fprintf(&b, "Total: $%.2f\n", order.TotalAmount)
	fmt.Fprintf(&b, "Status: %s\n", order.Status)
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
