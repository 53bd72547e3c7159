package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/domain/models"
)

const channel = "unionhub:chat"

// Event is one confirmed message broadcast to every open view of a
// group. Origin identifies the hub instance that published it so an
// instance can skip its own events when they come back over Redis.
type Event struct {
	Origin  string         `json:"origin"`
	GroupID string         `json:"group_id"`
	Message models.Message `json:"message"`
}

type subscriber struct {
	groupID string
	ch      chan Event
}

// Hub fans confirmed messages out to the open chat connections of a
// group. With a Redis client it also bridges events across instances
// over a single pub/sub channel; with rdb == nil it is local-only,
// which is what the tests and single-node deployments use.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	instance string
	rdb      *redis.Client
	log      *zap.Logger
}

func NewHub(rdb *redis.Client, log *zap.Logger) *Hub {
	return &Hub{
		subs:     make(map[*subscriber]struct{}),
		instance: uuid.NewString(),
		rdb:      rdb,
		log:      log,
	}
}

// Run consumes the Redis bridge until ctx is canceled. It is a no-op
// without a Redis client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, channel)
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.log.Warn("chat: bad bridge payload", zap.Error(err))
				continue
			}
			if ev.Origin == h.instance {
				continue
			}
			h.deliver(ev)
		}
	}
}

// Subscribe registers a connection for a group's events. The returned
// channel is buffered; slow consumers drop events rather than block
// the publisher. Call the cancel func on disconnect.
func (h *Hub) Subscribe(groupID primitive.ObjectID) (<-chan Event, func()) {
	s := &subscriber{groupID: groupID.Hex(), ch: make(chan Event, 32)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subs, s)
		h.mu.Unlock()
	}
	return s.ch, cancel
}

// Publish delivers a confirmed message to local subscribers and, when
// bridged, to the other instances.
func (h *Hub) Publish(ctx context.Context, m models.Message) {
	ev := Event{Origin: h.instance, GroupID: m.GroupID.Hex(), Message: m}
	h.deliver(ev)
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("chat: marshal bridge event", zap.Error(err))
		return
	}
	if err := h.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		h.log.Warn("chat: bridge publish failed", zap.Error(err))
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.groupID != ev.GroupID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			if h.log != nil {
				h.log.Warn("chat: subscriber buffer full, dropping event",
					zap.String("group_id", ev.GroupID))
			}
		}
	}
}
