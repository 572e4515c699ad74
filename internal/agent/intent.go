package agent

import "strings"

// Intent is one of the three fixed message categories, plus the ERROR
// marker used only at the HTTP boundary.
type Intent string

const (
	IntentProductDetails      Intent = "PRODUCT_DETAILS"
	IntentInventoryManagement Intent = "INVENTORY_MANAGEMENT"
	IntentProductComparison   Intent = "PRODUCT_COMPARISON"
	IntentError               Intent = "ERROR"
)

// ParseIntent maps raw classifier output to a category. Anything outside
// the three valid labels is coerced to product details rather than failing
// the turn.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(raw))) {
	case IntentProductDetails:
		return IntentProductDetails
	case IntentInventoryManagement:
		return IntentInventoryManagement
	case IntentProductComparison:
		return IntentProductComparison
	default:
		return IntentProductDetails
	}
}
