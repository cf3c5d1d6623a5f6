package persistence

import (
	"fmt"
	"strings"

	"github.com/gmja/storefront/internal/domain/shared"
	"gorm.io/gorm"
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

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"username":    true,
	"email":       true,
	"name":        true,
	"date_joined": true,
	"last_login":  true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"title":       true,
	"price":       true,
	"rating":      true,
	"num_reviews": true,
	"stock":       true,
}

// CategorySortFields contains allowed sort fields for categories
var CategorySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"name":       true,
	"slug":       true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":        true,
	"number":    true,
	"placed_at": true,
	"total":     true,
	"status":    true,
}

// ReviewSortFields contains allowed sort fields for reviews
var ReviewSortFields = map[string]bool{
	"id":      true,
	"created": true,
	"score":   true,
}

// ActionSortFields contains allowed sort fields for actions
var ActionSortFields = map[string]bool{
	"id":        true,
	"timestamp": true,
}

// sortColumns maps public sort names onto columns where they differ
var sortColumns = map[string]string{
	"rating": "rating_average",
}

// applySort orders query by the filter's whitelisted field. id is added as a
// tie breaker so paging is stable.
func applySort(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	if column, ok := sortColumns[field]; ok {
		field = column
	}
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", field, dir))
	if field != "id" {
		query = query.Order(fmt.Sprintf("id %s", dir))
	}
	return query
}

// paginate applies the filter's page window
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}

// likePattern escapes a search term for a LIKE clause
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(term))) + "%"
}
