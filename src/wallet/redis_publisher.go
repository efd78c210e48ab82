package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/onemorebsmith/soroban-vault/src/model"
	"go.uber.org/zap"
)

const SessionChannel = "vault:session"

type sessionEvent struct {
	From    model.SessionStatus `json:"from"`
	To      model.SessionStatus `json:"to"`
	Address string              `json:"address,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	At      time.Time           `json:"at"`
}

// RedisPublisher republishes session transitions so processes other than this one can react
// to connects and disconnects.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: SessionChannel,
		logger:  logger.With(zap.String("component", "session_publisher")),
	}
}

// Attach subscribes the publisher to s, returning the unsubscribe func
func (rp *RedisPublisher) Attach(s *Session) func() {
	return s.OnTransition(func(t model.SessionTransition) {
		if err := rp.Publish(context.Background(), t); err != nil {
			rp.logger.Warn("failed publishing session transition", zap.Error(err))
		}
	})
}

func (rp *RedisPublisher) Publish(ctx context.Context, t model.SessionTransition) error {
	payload, err := json.Marshal(sessionEvent{
		From:    t.From.Status,
		To:      t.To.Status,
		Address: string(t.To.Identity.Address),
		Reason:  t.To.Reason,
		At:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return rp.client.Publish(ctx, rp.channel, payload).Err()
}
