package realtime

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/models"
)

type fakeConn struct {
	inbound chan clientFrame
	closed  chan struct{}
	once    sync.Once

	mu      sync.Mutex
	written []Event
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan clientFrame, 8),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) ReadJSON(v interface{}) error {
	select {
	case frame := <-f.inbound:
		*(v.(*clientFrame)) = frame
		return nil
	case <-f.closed:
		return io.EOF
	}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	event, ok := v.(Event)
	if !ok {
		return io.ErrUnexpectedEOF
	}
	f.mu.Lock()
	f.written = append(f.written, event)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) WriteMessage(int, []byte) error { return nil }

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.written))
	copy(out, f.written)
	return out
}

func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func mustEvent(t *testing.T, eventType, room string, payload interface{}) Event {
	t.Helper()
	event, err := NewEvent(eventType, room, payload)
	require.NoError(t, err)
	return event
}

func TestHubDeliversToJoinedRoomOnly(t *testing.T) {
	hub := NewHub(nil, "", nil, zerolog.Nop())
	conn := newFakeConn()

	done := make(chan struct{})
	go func() {
		hub.serve(conn, models.User{ID: 9, Role: models.RoleStudent})
		close(done)
	}()

	conn.inbound <- clientFrame{Action: "join", Room: "post:1"}
	require.Eventually(t, func() bool { return hub.roomSize("post:1") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), mustEvent(t, "reaction-changed", "post:1", map[string]int{"postId": 1})))
	require.NoError(t, hub.Publish(context.Background(), mustEvent(t, "reaction-changed", "post:2", map[string]int{"postId": 2})))

	require.Eventually(t, func() bool { return len(conn.events()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "post:1", conn.events()[0].Room)

	require.NoError(t, conn.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serve did not return after connection close")
	}
	require.Zero(t, hub.roomSize("post:1"), "membership must be cleaned up on disconnect")
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	hub := NewHub(nil, "", nil, zerolog.Nop())
	conn := newFakeConn()
	go hub.serve(conn, models.User{ID: 9})
	defer conn.Close()

	conn.inbound <- clientFrame{Action: "join", Room: "post:7"}
	require.Eventually(t, func() bool { return hub.roomSize("post:7") == 1 }, time.Second, 5*time.Millisecond)

	conn.inbound <- clientFrame{Action: "leave", Room: "post:7"}
	require.Eventually(t, func() bool { return hub.roomSize("post:7") == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), mustEvent(t, "comment-added", "post:7", map[string]int{"postId": 7})))
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, conn.events())
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub(nil, "", nil, zerolog.Nop())
	conn := newFakeConn()
	go hub.serve(conn, models.User{ID: 9})
	defer conn.Close()

	conn.inbound <- clientFrame{Action: "join", Room: "post:3"}
	conn.inbound <- clientFrame{Action: "join", Room: "post:3"}
	require.Eventually(t, func() bool { return hub.roomSize("post:3") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), mustEvent(t, "comment-added", "post:3", map[string]int{"postId": 3})))
	require.Eventually(t, func() bool { return len(conn.events()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Len(t, conn.events(), 1, "a twice-joined client receives each event once")
}

func TestHubDropsEventsForSlowClient(t *testing.T) {
	hub := NewHub(nil, "", nil, zerolog.Nop())

	// A hand-built client with no writer goroutine stands in for a stalled
	// connection: once the buffer fills, further events must be dropped
	// rather than block the publisher.
	c := &client{
		conn:   newFakeConn(),
		send:   make(chan Event, 1),
		rooms:  make(map[string]struct{}),
		closed: make(chan struct{}),
		hub:    hub,
	}
	hub.join(c, "post:5")

	first := mustEvent(t, "comment-added", "post:5", map[string]int{"n": 1})
	second := mustEvent(t, "comment-added", "post:5", map[string]int{"n": 2})

	delivered := make(chan struct{})
	go func() {
		hub.broadcast(first)
		hub.broadcast(second)
		close(delivered)
	}()

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	require.Len(t, c.send, 1)
}

func TestHubRelayIgnoresOwnEvents(t *testing.T) {
	hub := NewHub(nil, "", nil, zerolog.Nop())

	c := &client{
		conn:   newFakeConn(),
		send:   make(chan Event, 8),
		rooms:  make(map[string]struct{}),
		closed: make(chan struct{}),
		hub:    hub,
	}
	hub.join(c, "post:2")

	event := mustEvent(t, "reaction-changed", "post:2", map[string]int{"postId": 2})

	own, err := json.Marshal(relayEnvelope{Source: hub.nodeID, Event: event, SentAt: time.Now()})
	require.NoError(t, err)
	hub.handleRelay(own)
	require.Empty(t, c.send, "events relayed from this node are already delivered locally")

	peer, err := json.Marshal(relayEnvelope{Source: "peer-node", Event: event, SentAt: time.Now()})
	require.NoError(t, err)
	hub.handleRelay(peer)
	require.Len(t, c.send, 1)
}

func TestHubSnapshotDeliveredOnJoin(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	hub := NewHub(redisClient, "test:realtime", nil, zerolog.Nop())

	// Published with no subscribers; the room's latest event is cached.
	event := mustEvent(t, "reaction-changed", "post:4", map[string]int{"postId": 4})
	require.NoError(t, hub.Publish(context.Background(), event))

	c := &client{
		conn:   newFakeConn(),
		send:   make(chan Event, 8),
		rooms:  make(map[string]struct{}),
		closed: make(chan struct{}),
		hub:    hub,
	}
	hub.join(c, "post:4")

	require.Len(t, c.send, 1)
	received := <-c.send
	require.Equal(t, event.Type, received.Type)
	require.Equal(t, event.Room, received.Room)
}
