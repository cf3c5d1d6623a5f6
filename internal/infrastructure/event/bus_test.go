package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "product", 7, 1)}
}

type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
	mu         sync.Mutex
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{eventTypes: []string{"ReviewPosted"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("ReviewPosted")))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_Wildcard(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := &testHandler{}
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("ReviewPosted"), newTestEvent("OrderPlaced")))

	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &testHandler{err: errors.New("nope")}
	panicking := &testHandler{panics: true}
	healthy := &testHandler{}
	bus.Subscribe(failing, "OrderPlaced")
	bus.Subscribe(panicking, "OrderPlaced")
	bus.Subscribe(healthy, "OrderPlaced")

	err := bus.Publish(context.Background(), newTestEvent("OrderPlaced"))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &testHandler{}
	bus.Subscribe(handler, "OrderPlaced")
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Zero(t, handler.count())
}

type orderedHandler struct {
	name string
	log  *[]string
}

func (h *orderedHandler) Handle(context.Context, shared.DomainEvent) error {
	*h.log = append(*h.log, h.name)
	return nil
}

func (h *orderedHandler) EventTypes() []string { return []string{"OrderPlaced"} }

func TestInMemoryEventBus_SubscriptionOrder(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	var calls []string
	bus.Subscribe(&orderedHandler{name: "stream", log: &calls})
	bus.Subscribe(&orderedHandler{name: "catalogue", log: &calls})

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPlaced")))
	assert.Equal(t, []string{"stream", "catalogue"}, calls)
}
