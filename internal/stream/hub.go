package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/Rdeepthiacharya/HerShield/internal/tracking"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownSession = errors.New("unknown tracking session")

const clientBuffer = 64

// SnapshotProvider supplies the current state of a session to new subscribers.
type SnapshotProvider interface {
	Get(ctx context.Context, sessionID string) (tracking.Session, error)
}

// Hub fans tracking events out to subscribers grouped in per-session rooms.
// With a Redis client it also relays events between instances.
type Hub struct {
	redis     *redis.Client
	origin    string
	snapshots SnapshotProvider
	rooms     map[string]map[*Client]struct{}
	mu        sync.RWMutex
	stop      context.CancelFunc
}

type Client struct {
	SessionID string
	Send      chan []byte
}

// envelope wraps relayed payloads so an instance can skip its own messages.
type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:  redisClient,
		origin: uuid.NewString(),
		rooms:  map[string]map[*Client]struct{}{},
		stop:   cancel,
	}

	if redisClient != nil {
		pubsub := redisClient.PSubscribe(ctx, redisPattern)
		go h.relay(ctx, pubsub)
	}
	return h
}

// UseSnapshots sets the provider consulted by Join.
func (h *Hub) UseSnapshots(p SnapshotProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = p
}

// Close stops the Redis relay.
func (h *Hub) Close() {
	h.stop()
}

func (h *Hub) Subscribe(sessionID string) *Client {
	return h.subscribe(sessionID, nil)
}

// subscribe queues first ahead of any broadcast the client can see.
func (h *Hub) subscribe(sessionID string, first []byte) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, clientBuffer),
	}
	if first != nil {
		client.Send <- first
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = map[*Client]struct{}{}
	}
	h.rooms[sessionID][client] = struct{}{}
	return client
}

// Unsubscribe removes the client and closes its channel. Repeated calls are
// no-ops.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.SessionID]
	if !ok {
		return
	}
	if _, member := room[client]; !member {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.SessionID)
	}
	close(client.Send)
}

// Join subscribes to a session and queues a session_joined snapshot for the
// new client only.
func (h *Hub) Join(ctx context.Context, sessionID string) (*Client, error) {
	h.mu.RLock()
	provider := h.snapshots
	h.mu.RUnlock()

	if provider == nil {
		return h.Subscribe(sessionID), nil
	}

	snapshot, err := provider.Get(ctx, sessionID)
	if errors.Is(err, tracking.ErrNotFound) {
		return nil, ErrUnknownSession
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(tracking.Event{
		Type:         tracking.EventSessionJoined,
		SessionID:    sessionID,
		TotalUpdates: snapshot.TotalUpdates,
		Snapshot:     &snapshot,
	})
	if err != nil {
		return nil, err
	}

	return h.subscribe(sessionID, payload), nil
}

// Publish implements tracking.Publisher.
func (h *Hub) Publish(ctx context.Context, event tracking.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("stream encode error: %v", err)
		return
	}
	h.deliver(event.SessionID, payload)

	if h.redis == nil {
		return
	}
	msg, err := json.Marshal(envelope{Origin: h.origin, Payload: payload})
	if err != nil {
		log.Printf("stream encode error: %v", err)
		return
	}
	if err := h.redis.Publish(ctx, redisChannel(event.SessionID), msg).Err(); err != nil {
		log.Printf("redis publish error: %v", err)
	}
}

// deliver never blocks; a full client buffer drops the message.
func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) relay(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("redis relay decode error: %v", err)
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.deliver(sessionIDFromChannel(msg.Channel), env.Payload)
		}
	}
}

const redisPattern = "tracking:*:broadcast"

func redisChannel(sessionID string) string {
	return "tracking:" + sessionID + ":broadcast"
}

func sessionIDFromChannel(ch string) string {
	// tracking:{session}:broadcast
	const prefix = "tracking:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
