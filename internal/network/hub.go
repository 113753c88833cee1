// Package network is the push shell: a WebSocket hub that routes player
// actions into engine sessions and streams committed domain events back
// out. The engine has no knowledge of this layer.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/luparagames/omerta/internal/engine"
	"github.com/luparagames/omerta/internal/events"
	"github.com/luparagames/omerta/internal/platform/logger"
	"github.com/luparagames/omerta/internal/platform/metrics"
	"github.com/luparagames/omerta/internal/tuning"
)

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	service *engine.Service
	logger  *logger.Logger
	met     *metrics.Collector
	tun     tuning.Tuning
}

// NewHub initializes a new WebSocket Hub.
func NewHub(service *engine.Service, log *logger.Logger, met *metrics.Collector, tun tuning.Tuning) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, tun.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		service:    service,
		logger:     log,
		met:        met,
		tun:        tun,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.met.RecordWSConnection(1)
			h.logger.Info("WebSocket client connected for %s", client.playerID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.met.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected for %s", client.playerID)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.met.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					h.met.RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent serializes a domain event and sends it to all clients.
func (h *Hub) BroadcastEvent(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize event for broadcast: %v", err)
		h.met.RecordWSError()
		return
	}
	h.broadcast <- payload
}

// StartEventPoller polls the event log and pushes new events to the hub.
// The hub runs independently from the engine sessions while picking up
// the same committed events.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		poll := time.NewTicker(200 * time.Millisecond)
		defer poll.Stop()

		lastProcessed := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				all := eventLog.Replay()
				if len(all) > lastProcessed {
					for _, event := range all[lastProcessed:] {
						h.BroadcastEvent(event)
					}
					lastProcessed = len(all)
				}
			}
		}
	}()
}
