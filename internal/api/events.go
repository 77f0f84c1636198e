package api

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"goenrich/domain/core"
)

// Run lifecycle event types.
const (
	EventRunFinished = "run_finished"
	EventRunDeleted  = "run_deleted"
)

// RunEvent is one entry in the run lifecycle feed
type RunEvent struct {
	RunID     core.RunID `json:"run_id"`
	EventType string     `json:"event_type"`
	Backend   string     `json:"backend,omitempty"`
	NumTerms  int        `json:"num_terms,omitempty"`
	RuntimeMs int64      `json:"runtime_ms,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// EventHub fans run lifecycle events out to SSE subscribers. Slow
// subscribers drop events rather than stall the feed.
type EventHub struct {
	clients    map[chan RunEvent]bool
	clientsMu  sync.RWMutex
	register   chan chan RunEvent
	unregister chan chan RunEvent
	broadcast  chan RunEvent
}

// NewEventHub creates the hub and starts its dispatch loop
func NewEventHub() *EventHub {
	hub := &EventHub{
		clients:    make(map[chan RunEvent]bool),
		register:   make(chan chan RunEvent, 10),
		unregister: make(chan chan RunEvent, 10),
		broadcast:  make(chan RunEvent, 100),
	}

	go hub.run()
	return hub
}

func (h *EventHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client)
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client <- event:
				default:
					// Client channel is full, skip
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Subscribe registers a new feed subscriber
func (h *EventHub) Subscribe() chan RunEvent {
	client := make(chan RunEvent, 10)
	h.register <- client
	return client
}

// Unsubscribe removes a subscriber and closes its channel
func (h *EventHub) Unsubscribe(client chan RunEvent) {
	select {
	case h.unregister <- client:
	default:
		log.Printf("[SSE] unregister queue full, dropping subscriber")
	}
}

// Broadcast queues an event for all subscribers without blocking
func (h *EventHub) Broadcast(event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] broadcast queue full, dropping %s for run %s", event.EventType, event.RunID)
	}
}

// ClientCount returns the number of live subscribers
func (h *EventHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams the run lifecycle feed as Server-Sent Events
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	client := h.Subscribe()
	defer h.Unsubscribe(client)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-client:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("run", string(payload))
			return true

		case <-time.After(30 * time.Second):
			// Ping to keep the connection alive
			c.SSEvent("ping", `{"status": "alive"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
