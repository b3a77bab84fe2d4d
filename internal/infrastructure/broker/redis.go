package broker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"skill-swap/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("redis unavailable")

// Redis wraps the pub/sub half of a go-redis client used by the
// notification relay.
type Redis struct {
	client *redis.Client
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

// Connect pings the server before returning so a misconfigured relay fails
// at startup rather than on the first event.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrUnavailable, err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Redis{client: client, logger: logger}, nil
}

func NewFromClient(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn("redis unavailable", zap.Error(err))
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	r.warnedUnavailable.Store(false)
	return nil
}

// Subscribe invokes handle for every message on channel until ctx is done.
// go-redis reconnects the underlying subscription on its own.
func (r *Redis) Subscribe(ctx context.Context, channel string, handle func([]byte)) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	sub := r.client.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle([]byte(msg.Payload))
		}
	}
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}
