package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(nil, nil, nil, zap.NewNop())
}

func newDetachedClient(h *Hub) *Client {
	// No websocket behind it; only the room bookkeeping and the send
	// channel are exercised.
	return newClient(h, nil)
}

func TestJoinAndRemove(t *testing.T) {
	h := newTestHub()
	a := newDetachedClient(h)
	b := newDetachedClient(h)

	room := RoomKey("abc123")
	h.join(a, room)
	h.join(b, room)

	if got := h.roomSize(room); got != 2 {
		t.Fatalf("roomSize = %d, want 2", got)
	}

	h.remove(a)
	if got := h.roomSize(room); got != 1 {
		t.Fatalf("roomSize after remove = %d, want 1", got)
	}

	// Last client out prunes the room entirely.
	h.remove(b)
	h.mu.RLock()
	_, exists := h.rooms[room]
	h.mu.RUnlock()
	if exists {
		t.Error("empty room not pruned")
	}
}

func TestRemoveClearsClientRooms(t *testing.T) {
	h := newTestHub()
	c := newDetachedClient(h)

	h.join(c, RoomKey("one"))
	h.join(c, RoomKey("two"))
	h.remove(c)

	if len(c.rooms) != 0 {
		t.Fatalf("client still tracks %d rooms after remove", len(c.rooms))
	}
	if h.roomSize(RoomKey("one")) != 0 || h.roomSize(RoomKey("two")) != 0 {
		t.Error("hub still tracks removed client")
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newTestHub()
	c := newDetachedClient(h)

	room := RoomKey("abc123")
	h.join(c, room)
	h.join(c, room)

	if got := h.roomSize(room); got != 1 {
		t.Fatalf("roomSize = %d, want 1 after duplicate join", got)
	}
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	h := newTestHub()
	in := newDetachedClient(h)
	out := newDetachedClient(h)

	h.join(in, RoomKey("abc123"))
	h.join(out, RoomKey("other"))

	h.broadcast(RoomKey("abc123"), []byte("hello"))

	select {
	case got := <-in.send:
		if string(got) != "hello" {
			t.Fatalf("payload = %q, want %q", got, "hello")
		}
	default:
		t.Fatal("room member received nothing")
	}

	select {
	case <-out.send:
		t.Fatal("broadcast leaked into another room")
	default:
	}
}

func TestTrySendDropsWedgedClient(t *testing.T) {
	h := newTestHub()
	c := newDetachedClient(h)
	h.join(c, RoomKey("abc123"))

	for i := 0; i < sendBuffer; i++ {
		c.trySend([]byte("fill"))
	}
	// Buffer full: this send must drop the client instead of blocking.
	c.trySend([]byte("overflow"))

	select {
	case <-c.done:
	default:
		t.Fatal("client with a full buffer was not closed")
	}
	if got := h.roomSize(RoomKey("abc123")); got != 0 {
		t.Fatalf("dropped client still in room, roomSize = %d", got)
	}
}

func TestTrySendAfterCloseDoesNotPanic(t *testing.T) {
	h := newTestHub()
	c := newDetachedClient(h)

	c.close()
	c.trySend([]byte("late"))
	c.close()
}

func TestMarshalEvent(t *testing.T) {
	payload := marshalEvent(EventError, errorPayload{Message: "nope"})

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Event != EventError {
		t.Fatalf("event = %q, want %q", env.Event, EventError)
	}

	var data errorPayload
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.Message != "nope" {
		t.Fatalf("message = %q, want %q", data.Message, "nope")
	}
}

func TestRoomKey(t *testing.T) {
	if got := RoomKey("abc123"); got != "room_abc123" {
		t.Fatalf("RoomKey = %q, want %q", got, "room_abc123")
	}
}
