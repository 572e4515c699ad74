package agent

import (
	"context"
	"fmt"
	"log/slog"
)

const classifierSystemPrompt = `You are a message categorization expert. Analyze the user's message and classify it into ONE of these categories:

1. PRODUCT_DETAILS - User wants information about products, specifications, features, pricing, availability
2. INVENTORY_MANAGEMENT - User wants to check order status, place an order, return an item, track shipments
3. PRODUCT_COMPARISON - User wants to compare products with others in the market, features comparison, vs other brands

Respond with ONLY the category name: PRODUCT_DETAILS, INVENTORY_MANAGEMENT, or PRODUCT_COMPARISON`

// Classifier maps free text to one of the three categories with a single
// language-model call. The raw message goes in without any session context.
type Classifier struct {
	llm    Completer
	logger *slog.Logger
}

func NewClassifier(llm Completer, logger *slog.Logger) *Classifier {
	return &Classifier{llm: llm, logger: logger}
}

func (c *Classifier) Classify(ctx context.Context, message string) (Intent, error) {
	raw, err := c.llm.Complete(ctx, classifierSystemPrompt,
		fmt.Sprintf("Categorize this message: '%s'", message))
	if err != nil {
		return "", fmt.Errorf("classify message: %w", err)
	}

	intent := ParseIntent(raw)
	c.logger.Debug("classified message", "intent", intent, "raw", raw)
	return intent, nil
}
