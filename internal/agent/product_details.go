package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helioretail/concierge/internal/store"
)

// productKeywords are the catalog's known product families, checked against
// the raw message to pick a filtered query.
var productKeywords = []string{"iphone", "macbook", "ipad", "airpods", "levi", "nike", "puma", "adidas"}

// ProductDetailsHandler answers product information requests: it picks a
// structured catalog query from coarse keywords, summarizes the result and
// asks the language model to phrase the reply.
type ProductDetailsHandler struct {
	store  CatalogStore
	llm    Completer
	logger *slog.Logger
}

func NewProductDetailsHandler(s CatalogStore, llm Completer, logger *slog.Logger) *ProductDetailsHandler {
	return &ProductDetailsHandler{store: s, llm: llm, logger: logger}
}

func (h *ProductDetailsHandler) Handle(ctx context.Context, req TurnRequest) (string, error) {
	lower := strings.ToLower(req.Message)

	// A named product family beats generic catalog phrasing, so
	// "show me nike shoes" filters to nike instead of dumping everything.
	// Catalog requests ("show me all", "catalog") and unrecognized
	// messages both fall back to the full catalog.
	filter := ""
	for _, kw := range productKeywords {
		if strings.Contains(lower, kw) {
			filter = kw
			break
		}
	}

	productsInfo := h.productsSummary(ctx, filter)

	systemPrompt := fmt.Sprintf(`You are a Product Information Specialist for our e-commerce store.

CHAT CONTEXT:
%s

AVAILABLE PRODUCTS:
%s

Your role:
- Provide detailed product information, specifications, and pricing
- Help customers understand product features and benefits
- Show product availability and stock levels
- Be enthusiastic about products while being honest about details

Customer: %s
Phone: %s

Respond to their inquiry about products in a helpful and engaging way.`,
		req.ChatContext, productsInfo, customerDisplayName(req.Customer, "Valued Customer"), req.PhoneNo)

	reply, err := h.llm.Complete(ctx, systemPrompt, req.Message)
	if err != nil {
		return "", fmt.Errorf("product details reply: %w", err)
	}
	return reply, nil
}

func (h *ProductDetailsHandler) productsSummary(ctx context.Context, filter string) string {
	result, err := h.store.FindProducts(ctx, filter)
	if err != nil {
		h.logger.Error("product query failed", "filter", filter, "error", err)
		return "No products found or unable to retrieve product information."
	}
	if !result.Found {
		return "No products found or unable to retrieve product information."
	}
	return formatProducts(result)
}

func formatProducts(result store.ProductsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d products:\n\n", result.TotalProducts)
	for _, p := range result.Products {
		status := "Available"
		if !p.Available {
			status = "Out of Stock"
		}
		fmt.Fprintf(&b, "- %s (%s)\n", p.ProductName, p.Size)
		fmt.Fprintf(&b, "  Price: $%.2f\n", p.Price)
		fmt.Fprintf(&b, "  Stock: %d units (%s)\n\n", p.StockQuantity, status)
	}
	return b.String()
}

func customerDisplayName(c store.CustomerResult, fallback string) string {
	if c.CustomerName != "" {
		return c.CustomerName
	}
	return fallback
}
