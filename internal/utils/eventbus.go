package utils

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Handler func(event Event)

type EventBus struct {
	subscribers map[string][]Handler
	events      chan Event
	mu          sync.RWMutex
	logger      *zap.SugaredLogger
}

func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]Handler),
		events:      make(chan Event, 100),
		logger:      logger.Sugar().With("component", "eventbus"),
	}
}

// Publish never blocks; events are dropped when the buffer is full.
func (eb *EventBus) Publish(event string, data interface{}) {
	e := Event{Event: event, Data: data}
	select {
	case eb.events <- e:
	default:
		eb.logger.Warnw("Event dropped, buffer full", "event", event)
	}
}

func (eb *EventBus) Subscribe(event string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[event] = append(eb.subscribers[event], handler)
}

// Run delivers published events to subscribers until ctx is done.
func (eb *EventBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-eb.events:
			eb.dispatch(e)
		}
	}
}

func (eb *EventBus) dispatch(e Event) {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.subscribers[e.Event]...)
	eb.mu.RUnlock()

	for _, h := range handlers {
		eb.safeCall(h, e)
	}
}

func (eb *EventBus) safeCall(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Errorw("Event handler panicked", "event", e.Event, "panic", r)
		}
	}()
	h(e)
}
