// Package realtime tracks connected websocket clients per user and delivers
// best-effort pushes to them.
package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"grownet-api/metrics"
)

// ErrUserOffline is returned when a push targets a user with no open socket on
// this instance. Callers treat it as a normal best-effort miss.
var ErrUserOffline = errors.New("user has no open realtime connection")

// Event is the envelope written to the socket.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// PresenceRegistry maps user ids to their open sockets. One instance is
// created at startup and injected wherever pushes are made.
type PresenceRegistry struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{clients: make(map[string]map[*Client]struct{})}
}

// Register adds the client and reports whether it is the user's first socket.
func (p *PresenceRegistry) Register(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := p.clients[c.userID]
	first := len(set) == 0
	if set == nil {
		set = make(map[*Client]struct{})
		p.clients[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.OpenSockets.Inc()
	return first
}

// Unregister removes the client and reports whether the user has gone offline.
func (p *PresenceRegistry) Unregister(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.clients[c.userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	metrics.OpenSockets.Dec()
	if len(set) == 0 {
		delete(p.clients, c.userID)
		return true
	}
	return false
}

func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients[userID]) > 0
}

// OnlineUsers returns the subset of userIDs with at least one open socket.
func (p *PresenceRegistry) OnlineUsers(userIDs []string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	online := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if len(p.clients[id]) > 0 {
			online = append(online, id)
		}
	}
	return online
}

// EmitToUser encodes the event once and queues it on every socket of userID.
// A client whose buffer is full is dropped rather than blocking the caller.
func (p *PresenceRegistry) EmitToUser(userID, event string, payload interface{}) error {
	data, err := json.Marshal(Event{Name: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.deliver(userID, data)
}

func (p *PresenceRegistry) deliver(userID string, data []byte) error {
	p.mu.RLock()
	set := p.clients[userID]
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	p.mu.RUnlock()

	if len(targets) == 0 {
		return ErrUserOffline
	}

	for _, c := range targets {
		if !c.enqueue(data) {
			log.Printf("Realtime buffer full for user %s, closing socket", userID)
			go c.Close()
		}
	}
	return nil
}
