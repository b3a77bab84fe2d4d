package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PubSub is the slice of the Redis broker the relay needs.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handle func([]byte)) error
}

type relayMessage struct {
	UserID uuid.UUID       `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Origin string          `json:"origin,omitempty"`
}

// RedisRelay fans events out across instances: Dispatch publishes on a
// shared channel and Run delivers whatever arrives to the local Notifier.
// If publishing fails the event is delivered locally only. Once the
// subscription has failed every later event is delivered locally.
type RedisRelay struct {
	broker    PubSub
	channel   string
	instance  string
	local     *Notifier
	logger    *zap.Logger
	localOnly atomic.Bool
}

func NewRedisRelay(broker PubSub, channel, instance string, local *Notifier, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{
		broker:   broker,
		channel:  channel,
		instance: instance,
		local:    local,
		logger:   logger.With(zap.String("channel", channel)),
	}
}

func (r *RedisRelay) Dispatch(ctx context.Context, userID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("notification payload encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	if r.localOnly.Load() {
		r.local.deliver(userID, event, data)
		return
	}
	msg, err := json.Marshal(relayMessage{UserID: userID, Event: event, Data: data, Origin: r.instance})
	if err != nil {
		r.logger.Error("relay message encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	if err := r.broker.Publish(ctx, r.channel, msg); err != nil {
		r.logger.Warn("relay publish failed, delivering locally",
			zap.String("event", event), zap.Stringer("user_id", userID), zap.Error(err))
		r.local.deliver(userID, event, data)
	}
}

// Run blocks until ctx is cancelled or the subscription fails. After a
// failure the relay degrades to local delivery.
func (r *RedisRelay) Run(ctx context.Context) error {
	r.logger.Info("notification relay subscribed", zap.String("instance", r.instance))
	err := r.broker.Subscribe(ctx, r.channel, r.handle)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	r.localOnly.Store(true)
	r.logger.Warn("relay subscription failed, delivering locally only", zap.Error(err))
	return err
}

// LocalOnly reports whether the relay has fallen back to local delivery.
func (r *RedisRelay) LocalOnly() bool {
	return r.localOnly.Load()
}

func (r *RedisRelay) handle(raw []byte) {
	var msg relayMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.logger.Warn("relay message dropped", zap.Error(err))
		return
	}
	if msg.UserID == uuid.Nil || msg.Event == "" {
		r.logger.Warn("relay message dropped", zap.String("reason", "missing user or event"))
		return
	}
	r.logger.Debug("relay message received", zap.String("event", msg.Event), zap.String("origin", msg.Origin))
	r.local.deliver(msg.UserID, msg.Event, msg.Data)
}
