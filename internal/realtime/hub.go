// Package realtime implements the room-scoped fan-out transport for
// engagement events. Connections authenticate during the HTTP upgrade,
// subscribe to per-post rooms and receive events published after the
// corresponding state has been persisted. Delivery is best-effort: there is
// no buffering or replay for events published before a join.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/observability"
)

const (
	sendBufferSize = 32
	snapshotTTL    = 30 * time.Minute
	pingInterval   = 30 * time.Second
)

// Event is a single payload fanned out to the subscribers of a room.
type Event struct {
	Type string          `json:"type"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data"`
}

// NewEvent builds an event by marshalling the payload.
func NewEvent(eventType, room string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return Event{Type: eventType, Room: room, Data: data}, nil
}

// Broadcaster is the publishing side of the transport. Services hold this
// interface so a fake can be substituted in tests.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
}

// RoomForPost derives the room key for a post.
func RoomForPost(postID uint) string {
	return fmt.Sprintf("post:%d", postID)
}

// relayEnvelope wraps events relayed between nodes via redis/NATS.
type relayEnvelope struct {
	Source string    `json:"source"`
	Event  Event     `json:"event"`
	SentAt time.Time `json:"sent_at"`
}

// clientFrame is the only inbound message shape accepted from subscribers.
type clientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// wsConn is the subset of the websocket connection the hub relies on.
// *websocket.Conn satisfies it; tests substitute an in-memory fake.
type wsConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub tracks room membership and delivers events to subscribed connections.
// A single Hub is created at process start and injected wherever events are
// published.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}

	redis          *redis.Client
	channel        string
	snapshotPrefix string
	nats           *nats.Conn
	natsSubject    string
	nodeID         string
	logger         zerolog.Logger
}

type client struct {
	conn      wsConn
	principal models.User
	send      chan Event
	rooms     map[string]struct{}
	closed    chan struct{}
	once      sync.Once
	hub       *Hub
}

// NewHub creates the fan-out hub. The redis client and NATS connection are
// optional; when absent the hub runs single-node.
func NewHub(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) *Hub {
	channel := ""
	snapshotPrefix := ""
	natsSubject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		snapshotPrefix = channelBase + ":events:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &Hub{
		rooms:          make(map[string]map[*client]struct{}),
		redis:          redisClient,
		channel:        channel,
		snapshotPrefix: snapshotPrefix,
		nats:           natsConn,
		natsSubject:    natsSubject,
		nodeID:         uuid.NewString(),
		logger:         logger.With().Str("component", "realtime_hub").Logger(),
	}
}

// Start launches the cross-node relay consumers. They stop when the context
// is cancelled.
func (h *Hub) Start(ctx context.Context) {
	if h.redis != nil && h.channel != "" {
		go h.consumeRedis(ctx)
	}
	if h.nats != nil && h.natsSubject != "" {
		go h.consumeNATS(ctx)
	}
}

// Publish delivers the event to every connection currently subscribed to its
// room, caches it as the room's latest snapshot and relays it to peer nodes.
// Local delivery never blocks on a slow connection.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.broadcast(event)
	h.cacheSnapshot(ctx, event)
	observability.RealtimeEvents().WithLabelValues(event.Type).Inc()
	return h.relay(ctx, event)
}

// ServeConnection runs the read/write loops for an authenticated connection.
// It blocks until the connection closes; cleanup of room membership is
// unconditional.
func (h *Hub) ServeConnection(conn *websocket.Conn, principal models.User) {
	h.serve(conn, principal)
}

func (h *Hub) serve(conn wsConn, principal models.User) {
	c := &client{
		conn:      conn,
		principal: principal,
		send:      make(chan Event, sendBufferSize),
		rooms:     make(map[string]struct{}),
		closed:    make(chan struct{}),
		hub:       h,
	}

	observability.RealtimeConnections().Inc()
	defer observability.RealtimeConnections().Dec()

	go c.writer()
	c.reader()
}

// join subscribes the client to a room. Joining twice is a no-op.
func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug().Str("room", room).Uint("user_id", c.principal.ID).Msg("client joined room")

	if last := h.fetchSnapshot(context.Background(), room); last != nil {
		select {
		case c.send <- *last:
		default:
			h.logger.Debug().Str("room", room).Msg("dropping snapshot for slow client")
		}
	}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[room]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// detach removes the client from every room it joined.
func (h *Hub) detach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range c.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = make(map[string]struct{})

	h.logger.Debug().Uint("user_id", c.principal.ID).Msg("client disconnected")
}

func (h *Hub) broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[event.Room] {
		select {
		case c.send <- event:
		default:
			h.logger.Warn().Str("room", event.Room).Uint("user_id", c.principal.ID).Msg("dropping event for slow client")
		}
	}
}

func (h *Hub) cacheSnapshot(ctx context.Context, event Event) {
	if h.redis == nil || h.snapshotPrefix == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to marshal event for snapshot cache")
		return
	}

	key := fmt.Sprintf("%s:%s", h.snapshotPrefix, event.Room)
	if err := h.redis.Set(ctx, key, payload, snapshotTTL).Err(); err != nil {
		h.logger.Warn().Err(err).Msg("failed to cache event snapshot")
	}
}

func (h *Hub) fetchSnapshot(ctx context.Context, room string) *Event {
	if h.redis == nil || h.snapshotPrefix == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%s", h.snapshotPrefix, room)
	result, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var event Event
	if err := json.Unmarshal([]byte(result), &event); err != nil {
		h.logger.Warn().Err(err).Msg("failed to unmarshal cached event snapshot")
		return nil
	}

	return &event
}

func (h *Hub) relay(ctx context.Context, event Event) error {
	if (h.redis == nil || h.channel == "") && (h.nats == nil || h.natsSubject == "") {
		return nil
	}

	envelope := relayEnvelope{
		Source: h.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if h.redis != nil && h.channel != "" {
		if err := h.redis.Publish(ctx, h.channel, payload).Err(); err != nil {
			return err
		}
	}

	if h.nats != nil && h.natsSubject != "" {
		if err := h.nats.Publish(h.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (h *Hub) consumeRedis(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, h.channel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			h.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		h.handleRelay([]byte(msg.Payload))
	}
}

func (h *Hub) consumeNATS(ctx context.Context) {
	sub, err := h.nats.QueueSubscribe(h.natsSubject, "campushub-realtime", func(msg *nats.Msg) {
		h.handleRelay(msg.Data)
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to drain nats subscription")
		}
	}()
}

func (h *Hub) handleRelay(data []byte) {
	var envelope relayEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		h.logger.Warn().Err(err).Msg("invalid relayed event")
		return
	}

	if envelope.Source == h.nodeID {
		return
	}

	observability.RealtimeEvents().WithLabelValues(envelope.Event.Type).Inc()
	h.broadcast(envelope.Event)
}

func (c *client) reader() {
	defer c.close()

	for {
		var frame clientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.hub.logger.Debug().Err(err).Msg("realtime read loop ended")
			return
		}

		room := strings.TrimSpace(frame.Room)
		switch strings.ToLower(strings.TrimSpace(frame.Action)) {
		case "join":
			if room != "" {
				c.hub.join(c, room)
			}
		case "leave":
			if room != "" {
				c.hub.leave(c, room)
			}
		default:
			c.hub.logger.Debug().Str("action", frame.Action).Msg("ignoring unknown realtime frame")
		}
	}
}

func (c *client) writer() {
	defer c.close()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.hub.logger.Debug().Err(err).Msg("realtime write loop terminated")
				return
			}
		case <-time.After(pingInterval):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.hub.logger.Debug().Err(err).Msg("realtime ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.closed)
		c.hub.detach(c)
		_ = c.conn.Close()
	})
}
