package handlers

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/pkg/logger"
)

const eventBuffer = 16

// RunEvent is one lifecycle notification pushed to dashboard subscribers.
type RunEvent struct {
	Type     string                `json:"type"`
	RunID    string                `json:"run_id,omitempty"`
	Strategy string                `json:"strategy,omitempty"`
	Degraded bool                  `json:"degraded,omitempty"`
	Engineer string                `json:"engineer,omitempty"`
	Score    float64               `json:"score,omitempty"`
	Position int                   `json:"position,omitempty"`
	Total    int                   `json:"total,omitempty"`
	Summary  *model.InsightSummary `json:"summary,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// RunEventHub fans run lifecycle events out to connected websocket clients.
// Slow subscribers drop events rather than block a run.
type RunEventHub struct {
	mu   sync.Mutex
	subs map[chan RunEvent]bool
}

func NewRunEventHub() *RunEventHub {
	return &RunEventHub{
		subs: make(map[chan RunEvent]bool),
	}
}

func (h *RunEventHub) Publish(event RunEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping run event for slow subscriber", zap.String("type", event.Type))
		}
	}
}

func (h *RunEventHub) subscribe() chan RunEvent {
	ch := make(chan RunEvent, eventBuffer)
	h.mu.Lock()
	h.subs[ch] = true
	h.mu.Unlock()
	return ch
}

func (h *RunEventHub) unsubscribe(ch chan RunEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

type WebSocketHandler struct {
	hub *RunEventHub
}

func NewWebSocketHandler(hub *RunEventHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection streams run events to one client until it disconnects.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	ch := h.hub.subscribe()
	done := make(chan struct{})

	defer func() {
		h.hub.unsubscribe(ch)
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	// Reader goroutine only watches for the client going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event := <-ch:
			if err := c.WriteJSON(event); err != nil {
				logger.Error("Failed to write run event", zap.Error(err))
				return
			}
		}
	}
}
