// Package network is the transport edge: a WebSocket hub fanning game
// messages out to per-game subscribers, the REST bridge for human
// actions and the replay endpoints over the transcript archive.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/and1mon/clueless/internal/engine"
	"github.com/and1mon/clueless/internal/narrate"
	"github.com/and1mon/clueless/internal/platform/logger"
	"github.com/and1mon/clueless/internal/platform/metrics"
)

// Frame is one outbound WebSocket payload.
type Frame struct {
	Type      string      `json:"type"` // "message" or "result"
	GameID    string      `json:"game_id"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// envelope pairs a marshaled frame with the game it belongs to so the
// run loop can route it to that game's subscribers only.
type envelope struct {
	gameID  string
	payload []byte
}

// Hub maintains the set of active clients and routes frames to the
// clients subscribed to each game. Inbound ack and gating frames from
// clients reach the delivery gates through the hub's gate set.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	gates      *narrate.GateSet
	logger     *logger.Logger
	sendBuffer int
}

// NewHub initializes a WebSocket hub. Buffer sizes come from config;
// a larger broadcast buffer trades memory for fewer dropped slow
// clients.
func NewHub(gates *narrate.GateSet, broadcastBuffer, sendBuffer int, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan envelope, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		gates:      gates,
		logger:     log,
		sendBuffer: sendBuffer,
	}
}

// Run starts the hub's main loop to handle client connections and
// broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Infof("WebSocket client subscribed to game %s", client.gameID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case env := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.gameID != env.gameID {
					continue
				}
				select {
				case client.send <- env.payload:
				default:
					// Slow consumer: drop it rather than stall the loop.
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
					metrics.Get().RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToGame serializes a frame and queues it for every client
// subscribed to the game.
func (h *Hub) BroadcastToGame(gameID string, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		metrics.Get().RecordWSError()
		h.logger.Errorf("Failed to serialize frame for WebSocket broadcast: %v", err)
		return
	}
	metrics.Get().RecordWSMessage(false)
	h.broadcast <- envelope{gameID: gameID, payload: payload}
}

// StartMessagePoller spawns a goroutine that watches the registry and
// pushes every new transcript message to the game's subscribers. The
// hub stays decoupled from the engine's mutation paths; it only ever
// reads snapshots.
func (h *Hub) StartMessagePoller(ctx context.Context, registry *engine.Registry) {
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		seen := make(map[string]int)
		announced := make(map[string]bool)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, game := range registry.All() {
					snap := game.Snapshot()
					sent := seen[snap.ID]
					if len(snap.Messages) > sent {
						for _, msg := range snap.Messages[sent:] {
							h.BroadcastToGame(snap.ID, Frame{
								Type:      "message",
								GameID:    snap.ID,
								Timestamp: msg.CreatedAt.Unix(),
								Payload:   msg,
							})
						}
						seen[snap.ID] = len(snap.Messages)
					}
					if snap.Ended() && !announced[snap.ID] {
						announced[snap.ID] = true
						h.BroadcastToGame(snap.ID, Frame{
							Type:      "result",
							GameID:    snap.ID,
							Timestamp: time.Now().Unix(),
							Payload: map[string]interface{}{
								"winner":     snap.Winner,
								"win_reason": snap.WinReason,
							},
						})
					}
				}
			}
		}
	}()
}
