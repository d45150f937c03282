package push

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

// Handler receives every event delivered by the push channel.
type Handler func(catalog.Event)

// Transport holds one connection to the push channel open until ctx is done
// or the connection drops, calling emit for each decoded event.
type Transport interface {
	Name() string
	Stream(ctx context.Context, emit func(catalog.Event)) error
}

// HubParams wires the hub dependencies.
type HubParams struct {
	Transport Transport
	Policy    ReconnectPolicy
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
}

// Hub fans push events out to subscribers and keeps the transport connected
// while at least one subscriber is registered.
type Hub struct {
	transport Transport
	policy    ReconnectPolicy
	logg      *logger.Logger
	metrics   *metrics.CartMetrics

	mu           sync.Mutex
	subs         map[uint64]Handler
	nextID       uint64
	cancelStream context.CancelFunc
	wake         chan struct{}
}

func NewHub(params HubParams) (*Hub, error) {
	if params.Transport == nil {
		return nil, fmt.Errorf("push transport required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Hub{
		transport: params.Transport,
		policy:    params.Policy,
		logg:      logg,
		metrics:   params.Metrics,
		subs:      make(map[uint64]Handler),
		wake:      make(chan struct{}, 1),
	}, nil
}

// Subscribe registers handler and returns the function that removes it.
// Removing the last subscriber closes the connection.
func (h *Hub) Subscribe(handler Handler) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = handler
	count := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetPushSubscribers(count)
	select {
	case h.wake <- struct{}{}:
	default:
	}

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	count := len(h.subs)
	if count == 0 && h.cancelStream != nil {
		h.cancelStream()
	}
	h.mu.Unlock()
	h.metrics.SetPushSubscribers(count)
}

// Subscribers returns the number of registered handlers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Run keeps the transport connected while subscribers exist, reconnecting
// per the policy whenever the connection drops. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	logCtx := h.logg.WithField(ctx, "transport", h.transport.Name())
	for {
		if err := h.waitForSubscribers(ctx); err != nil {
			return nil
		}

		streamCtx, cancel := context.WithCancel(ctx)
		if !h.setCancel(cancel) {
			cancel()
			continue
		}
		h.logg.Info(logCtx, "push channel connecting")
		err := h.transport.Stream(streamCtx, h.dispatch)
		h.setCancel(nil)
		stoppedByUnsubscribe := streamCtx.Err() != nil
		cancel()

		if ctx.Err() != nil {
			return nil
		}
		if stoppedByUnsubscribe {
			h.logg.Info(logCtx, "push channel closed, no subscribers left")
			continue
		}

		if err != nil {
			h.logg.Warn(h.logg.WithField(logCtx, "error", err.Error()), "push channel disconnected")
		} else {
			h.logg.Warn(logCtx, "push channel closed by remote")
		}
		if h.Subscribers() == 0 {
			continue
		}
		h.metrics.IncPushReconnect()
		if err := h.policy.Wait(ctx); err != nil {
			return nil
		}
	}
}

func (h *Hub) waitForSubscribers(ctx context.Context) error {
	for {
		if h.Subscribers() > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.wake:
		}
	}
}

// setCancel records the cancel func of the live stream. It refuses when the
// last subscriber left in the meantime.
func (h *Hub) setCancel(cancel context.CancelFunc) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cancel != nil && len(h.subs) == 0 {
		return false
	}
	h.cancelStream = cancel
	return true
}

func (h *Hub) dispatch(event catalog.Event) {
	h.mu.Lock()
	handlers := make([]Handler, 0, len(h.subs))
	for _, handler := range h.subs {
		handlers = append(handlers, handler)
	}
	h.mu.Unlock()

	h.metrics.IncPushEvent(event.Kind)
	for _, handler := range handlers {
		handler(event)
	}
}
