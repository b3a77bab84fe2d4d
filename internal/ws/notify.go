package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope is the frame pushed to a socket for every event.
type Envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Notifier delivers events to the clients registered on the local Hub.
type Notifier struct {
	hub    *Hub
	logger *zap.Logger
	now    func() time.Time
}

func NewNotifier(hub *Hub, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{hub: hub, logger: logger, now: time.Now}
}

func (n *Notifier) Dispatch(_ context.Context, userID uuid.UUID, event string, payload any) {
	if n == nil || n.hub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("notification payload encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	n.deliver(userID, event, data)
}

func (n *Notifier) deliver(userID uuid.UUID, event string, data json.RawMessage) {
	if n == nil || n.hub == nil {
		return
	}
	frame, err := json.Marshal(Envelope{
		Event:     event,
		Data:      data,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logger.Error("notification frame encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	delivered := n.hub.SendToUser(userID, frame)
	n.logger.Debug("notification delivered",
		zap.String("event", event),
		zap.Stringer("user_id", userID),
		zap.Int("clients", delivered),
	)
}
