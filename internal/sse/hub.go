package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
)

type Event string

const (
	EventState  Event = "state"
	EventClosed Event = "closed"
)

const (
	defaultHeartbeat  = 15 * time.Second
	defaultBufferSize = 16
)

// Message is one frame for the clients of a channel. Channels are session ids.
type Message struct {
	Channel string
	Event   Event
	Data    any
}

// Client is one open event stream.
type Client struct {
	ID       uuid.UUID
	Channel  string
	outbound chan Message
	done     chan struct{}
	once     sync.Once
}

// Send queues msg without blocking. It reports false when the buffer is full.
func (c *Client) Send(msg Message) bool {
	select {
	case c.outbound <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]struct{}
	heartbeat     time.Duration
	bufferSize    int
}

type Option func(*Hub)

func WithHeartbeat(d time.Duration) Option {
	return func(h *Hub) { h.heartbeat = d }
}

// WithBufferSize sets how many frames a slow client may lag behind before
// frames are dropped.
func WithBufferSize(n int) Option {
	return func(h *Hub) { h.bufferSize = n }
}

func NewHub(log *logger.Logger, opts ...Option) *Hub {
	h := &Hub{
		log:           log.WithPrefix("sse"),
		subscriptions: make(map[string]map[*Client]struct{}),
		heartbeat:     defaultHeartbeat,
		bufferSize:    defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.bufferSize <= 0 {
		h.bufferSize = 1
	}
	return h
}

// Subscribe registers a new client on channel.
func (h *Hub) Subscribe(channel string) *Client {
	channel = strings.TrimSpace(channel)
	c := &Client{
		ID:       uuid.New(),
		Channel:  channel,
		outbound: make(chan Message, h.bufferSize),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]struct{})
		h.subscriptions[channel] = clients
	}
	clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("client %s subscribed to %s", c.ID, channel)
	return c
}

// Unsubscribe removes the client and ends its stream.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	if clients, ok := h.subscriptions[c.Channel]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.subscriptions, c.Channel)
		}
	}
	h.mu.Unlock()

	c.close()
	h.log.Debug("client %s unsubscribed from %s", c.ID, c.Channel)
}

// Broadcast delivers msg to every client of its channel. Clients with a full
// buffer miss the frame.
func (h *Hub) Broadcast(msg Message) {
	if msg.Channel == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subscriptions[msg.Channel] {
		if !c.Send(msg) {
			h.log.Warn("dropping %s frame for client %s; outbound buffer full", msg.Event, c.ID)
		}
	}
}

// PublishState broadcasts a session state to the session's clients.
func (h *Hub) PublishState(state models.SessionState) {
	h.Broadcast(Message{Channel: state.SessionID, Event: EventState, Data: state})
}

// CloseChannel sends a final closed frame and ends every stream on channel.
func (h *Hub) CloseChannel(channel string) {
	h.mu.Lock()
	clients := h.subscriptions[channel]
	delete(h.subscriptions, channel)
	h.mu.Unlock()

	for c := range clients {
		c.Send(Message{Channel: channel, Event: EventClosed, Data: map[string]string{"session_id": channel}})
		c.close()
	}
	if len(clients) > 0 {
		h.log.Debug("closed %d streams on %s", len(clients), channel)
	}
}

// ClientCount returns the number of clients listening on channel.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[channel])
}

// Serve streams the client's frames until the request ends or the client is
// closed. Frames already queued when the client closes are still written.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("client %s went away: %v", c.ID, ctx.Err())
			return
		case <-c.done:
			h.drain(w, c)
			flusher.Flush()
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg := <-c.outbound:
			if err := h.write(w, msg); err != nil {
				h.log.Debug("write to client %s failed: %v", c.ID, err)
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Hub) drain(w http.ResponseWriter, c *Client) {
	for {
		select {
		case msg := <-c.outbound:
			if err := h.write(w, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (h *Hub) write(w http.ResponseWriter, msg Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		h.log.Warn("failed to marshal %s frame: %v", msg.Event, err)
		return nil
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
	return err
}
