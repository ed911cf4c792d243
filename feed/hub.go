// Package feed streams relay events to spectators over WebSocket.
package feed

import (
	"encoding/json"
	"fmt"
	"sync"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"

	"github.com/beka-birhanu/vinom-relay-server/service/i"
)

const (
	broadcastBufferSize = 256
	clientBufferSize    = 64
)

// subscriber is one connected spectator.
type subscriber struct {
	send chan []byte
}

// Hub fans events out to every subscriber. Slow subscribers lose messages;
// publishers never wait on them.
type Hub struct {
	logger general_i.Logger

	mu          sync.RWMutex
	subscribers map[*subscriber]bool

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(logger general_i.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: make(map[*subscriber]bool),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan []byte, broadcastBufferSize),
		done:        make(chan struct{}),
	}
}

// Run is the hub event loop.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for sub := range h.subscribers {
				select {
				case sub.send <- msg:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warning(fmt.Sprintf("event dropped for %d slow subscribers", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			for sub := range h.subscribers {
				close(sub.send)
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish implements i.EventPublisher.
func (h *Hub) Publish(e i.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		h.logger.Error(fmt.Sprintf("encoding event %s: %v", e.Kind, err))
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.logger.Warning("event dropped, hub buffer full")
	}
}

// Close stops the hub and disconnects every subscriber.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of connected spectators.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) subscribe() (*subscriber, bool) {
	sub := &subscriber{send: make(chan []byte, clientBufferSize)}
	select {
	case h.register <- sub:
		return sub, true
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) unsubscribe(sub *subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}
