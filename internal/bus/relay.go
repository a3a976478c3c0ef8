package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const relayPrefix = "netmon:events:"

// Relay forwards broadcast domain events to Redis pub/sub channels so
// out-of-process consumers (alerting and notification workers) can subscribe
// without sharing this process's bus. One-directional: the local bus stays
// authoritative for correlated replies.
type Relay struct {
	client *redis.Client
	bus    Bus
	log    *zap.Logger
	tokens map[string]int
}

func NewRelay(redisURL string, b Bus, log *zap.Logger) (*Relay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Relay{
		client: client,
		bus:    b,
		log:    log,
		tokens: make(map[string]int),
	}, nil
}

// BroadcastEvents is the default set worth relaying: the domain broadcasts,
// not the point-to-point correlated replies.
var BroadcastEvents = []string{
	TargetCreated,
	TargetUpdated,
	TargetDeleted,
	MonitoringStarted,
	MonitoringStopped,
	SpeedTestCompleted,
}

type relayEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func (r *Relay) Start(events []string) {
	for _, ev := range events {
		event := ev
		r.tokens[event] = r.bus.On(event, func(payload any) {
			r.publish(event, payload)
		})
	}
	r.log.Info("relay_started", zap.Int("events", len(events)))
}

func (r *Relay) Stop() {
	for event, token := range r.tokens {
		r.bus.Off(event, token)
		delete(r.tokens, event)
	}
	_ = r.client.Close()
	r.log.Info("relay_stopped")
}

func (r *Relay) publish(event string, payload any) {
	b, err := json.Marshal(relayEnvelope{Event: event, Payload: payload})
	if err != nil {
		r.log.Warn("relay_marshal_error", zap.String("event", event), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, relayPrefix+event, b).Err(); err != nil {
		r.log.Warn("relay_publish_error", zap.String("event", event), zap.Error(err))
	}
}
