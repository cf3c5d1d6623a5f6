package order

import (
	"context"

	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
	"go.uber.org/zap"
)

const maxPageSize = 100

// OrderService exposes order history and the staff status workflow
type OrderService struct {
	orders order.Repository
	events shared.EventPublisher
	logger *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orders order.Repository, events shared.EventPublisher, logger *zap.Logger) *OrderService {
	if events == nil {
		events = shared.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orders: orders, events: events, logger: logger}
}

// ListForUser returns a user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uint, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	filter = filter.Normalize(maxPageSize)
	orders, total, err := s.orders.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(orders, total, filter), nil
}

// List returns every order; used by the admin site
func (s *OrderService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[OrderResponse], error) {
	filter = filter.Normalize(maxPageSize)
	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(orders, total, filter), nil
}

// GetForUser returns one of the user's orders by number. Orders of other
// users are reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, userID uint, number string) (*OrderResponse, error) {
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, shared.ErrNotFound
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetByNumber returns any order by number
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*OrderResponse, error) {
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Get returns any order by ID
func (s *OrderService) Get(ctx context.Context, id uint) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ChangeStatus moves an order through its workflow
func (s *OrderService) ChangeStatus(ctx context.Context, actorID, id uint, target order.Status) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := o.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	if err := s.events.Publish(ctx, order.NewStatusChangedEvent(o, from, actorID)); err != nil {
		s.logger.Warn("Failed to publish order status event", zap.String("number", o.Number), zap.Error(err))
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Count returns the number of orders
func (s *OrderService) Count(ctx context.Context) (int64, error) {
	return s.orders.Count(ctx)
}

func paginate(orders []order.Order, total int64, filter shared.Filter) *shared.Paginated[OrderResponse] {
	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderResponse(&orders[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result
}
