package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), tenantID),
		Data:            "test data",
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

// panicHandler panics on every event
type panicHandler struct{}

func (h *panicHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	panic("handler exploded")
}

func (h *panicHandler) EventTypes() []string { return nil }

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("payment.applied")
	bus.Subscribe(handler, "payment.applied")

	event := newTestEvent("payment.applied", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), event))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_Publish_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	paymentHandler := newTestHandler("payment.applied")
	creditHandler := newTestHandler("credit.created")
	bus.Subscribe(paymentHandler)
	bus.Subscribe(creditHandler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("payment.applied", uuid.New())))

	assert.Len(t, paymentHandler.getHandled(), 1)
	assert.Empty(t, creditHandler.getHandled())
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	wildcard := newTestHandler()
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("payment.applied", uuid.New()),
		newTestEvent("credit.created", uuid.New()),
	))

	assert.Len(t, wildcard.getHandled(), 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("payment.applied")
	failing.err = errors.New("handler failure")
	healthy := newTestHandler("payment.applied")

	bus.Subscribe(failing, "payment.applied")
	bus.Subscribe(healthy, "payment.applied")

	err := bus.Publish(context.Background(), newTestEvent("payment.applied", uuid.New()))

	require.NoError(t, err)
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_RecoversFromHandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	bus.Subscribe(&panicHandler{})
	healthy := newTestHandler()
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("payment.applied", uuid.New()))

	require.NoError(t, err)
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("payment.applied")
	bus.Subscribe(handler, "payment.applied")
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("payment.applied", uuid.New())))
	assert.Empty(t, handler.getHandled())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
}
