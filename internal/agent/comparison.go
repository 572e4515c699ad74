package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// electronicsKeywords trigger the internal-catalog supplement in a
// comparison reply.
var electronicsKeywords = []string{"iphone", "macbook", "ipad", "airpods"}

// maxInternalProducts caps the internal product list appended to a
// comparison prompt.
const maxInternalProducts = 5

// ComparisonHandler answers "X vs Y" style requests with external search
// results, optionally supplemented by the internal catalog. An unavailable
// lookup is surfaced verbatim inside the reply, never as an error.
type ComparisonHandler struct {
	store    CatalogStore
	comparer Comparer
	llm      Completer
	logger   *slog.Logger
}

func NewComparisonHandler(s CatalogStore, comparer Comparer, llm Completer, logger *slog.Logger) *ComparisonHandler {
	return &ComparisonHandler{store: s, comparer: comparer, llm: llm, logger: logger}
}

func (h *ComparisonHandler) Handle(ctx context.Context, req TurnRequest) (string, error) {
	comparisonInfo := h.comparisonSummary(ctx, req.Message)
	internalProducts := h.internalProducts(ctx, req.Message)

	systemPrompt := fmt.Sprintf(`You are a Product Comparison Specialist for our e-commerce store.

CHAT CONTEXT:
%s

COMPARISON RESEARCH:
%s

%s

Customer: %s

Your role:
- Help customers compare different products objectively
- Provide balanced comparisons highlighting pros and cons
- Use external research data to support comparisons
- Guide purchasing decisions with unbiased information
- Summarize key findings and recommendations

Respond to their comparison request with helpful, objective analysis.`,
		req.ChatContext, comparisonInfo, internalProducts, customerDisplayName(req.Customer, "Valued Customer"))

	reply, err := h.llm.Complete(ctx, systemPrompt, req.Message)
	if err != nil {
		return "", fmt.Errorf("comparison reply: %w", err)
	}
	return reply, nil
}

func (h *ComparisonHandler) comparisonSummary(ctx context.Context, message string) string {
	result, err := h.comparer.Compare(ctx, message)
	if err != nil {
		h.logger.Error("comparison lookup failed", "error", err)
		return "COMPARISON ERROR: Unable to fetch comparison data"
	}
	if !result.Success {
		return fmt.Sprintf("COMPARISON ERROR: %s", result.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EXTERNAL COMPARISON RESULTS for '%s':\n", result.Query)
	fmt.Fprintf(&b, "Found %d comparison sources:\n\n", result.ResultCount)
	for i, r := range result.Results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   Summary: %s\n", r.Snippet)
		if r.Source != "" {
			fmt.Fprintf(&b, "   Source: %s\n", r.Source)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (h *ComparisonHandler) internalProducts(ctx context.Context, message string) string {
	if !containsAny(strings.ToLower(message), electronicsKeywords) {
		return ""
	}

	result, err := h.store.FindProducts(ctx, "")
	if err != nil {
		h.logger.Warn("internal product list unavailable for comparison", "error", err)
		return ""
	}
	if !result.Found {
		return ""
	}

	var b strings.Builder
	b.WriteString("OUR AVAILABLE PRODUCTS:\n")
	products := result.Products
	if len(products) > maxInternalProducts {
		products = products[:maxInternalProducts]
	}
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%s): $%.2f\n", p.ProductName, p.Size, p.Price)
	}
	return b.String()
}
