package catalog

import (
	"context"

	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
)

// StockHandler drops cached listings when stock changes outside the
// catalogue service, which happens when an order is placed
type StockHandler struct {
	svc *CatalogService
}

// NewStockHandler creates the handler for svc's cache
func NewStockHandler(svc *CatalogService) *StockHandler {
	return &StockHandler{svc: svc}
}

// EventTypes implements shared.EventHandler
func (h *StockHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced}
}

// Handle implements shared.EventHandler
func (h *StockHandler) Handle(ctx context.Context, _ shared.DomainEvent) error {
	h.svc.invalidate(ctx)
	return nil
}

var _ shared.EventHandler = (*StockHandler)(nil)
