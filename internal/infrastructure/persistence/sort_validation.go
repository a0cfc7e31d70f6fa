package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PaymentSortFields contains allowed sort fields for payment list queries
var PaymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"payment_number": true,
	"received_at":    true,
	"amount":         true,
	"applied_amount": true,
	"status":         true,
}

// CreditSortFields contains allowed sort fields for credit list queries
var CreditSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"credit_number":    true,
	"credit_date":      true,
	"expiry_date":      true,
	"amount":           true,
	"available_amount": true,
	"status":           true,
}
