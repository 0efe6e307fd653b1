// Package hub fans out session events to subscribed connections.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub is a registry of named broadcast channels, one per lobby. The
// channel keeps its name when a lobby becomes a session, so publishers
// and subscribers ride through the transition.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{channels: make(map[string]*Channel)}
}

// GetOrCreate returns the channel with the given id, creating it if
// needed.
func (h *Hub) GetOrCreate(id string) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.channels[id]
	if !ok {
		ch = &Channel{id: id, subs: make(map[chan []byte]bool)}
		h.channels[id] = ch
	}
	return ch
}

// Get returns the channel with the given id, if it exists.
func (h *Hub) Get(id string) (*Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.channels[id]
	return ch, ok
}

// Remove drops the channel from the registry. Handles already held
// stay usable; they just can no longer be looked up.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels, id)
}

// ChannelCount returns the number of registered channels.
func (h *Hub) ChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// Channel is one broadcast stream. Subscribers hand in their own
// buffered queue; a slow subscriber loses its oldest frames, never
// stalls the publisher.
type Channel struct {
	id   string
	mu   sync.Mutex
	subs map[chan []byte]bool
}

// ID returns the channel name.
func (c *Channel) ID() string {
	return c.id
}

// Subscribe registers a queue to receive every subsequent publish.
func (c *Channel) Subscribe(ch chan []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[ch] = true
}

// Unsubscribe removes a queue. Once it returns, no publish will touch
// the queue again, so the caller may close it.
func (c *Channel) Unsubscribe(ch chan []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, ch)
}

// SubscriberCount returns the number of attached queues.
func (c *Channel) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Publish marshals the event once and enqueues it on every subscriber.
// A full queue sheds its oldest frame to make room; the publisher
// never blocks.
func (c *Channel) Publish(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("channelId", c.id).Msg("Failed to marshal broadcast event")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- data:
			continue
		default:
		}

		// Queue full: shed the oldest frame and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- data:
		default:
			log.Warn().Str("channelId", c.id).Msg("Dropping broadcast event, subscriber stalled")
		}
	}
}
