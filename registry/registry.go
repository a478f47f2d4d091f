// Package registry implements the client registry:
// a shared mapping from connection-id to Client, guarded by a
// multi-reader/single-writer lock. Network tasks insert on connect and
// remove on disconnect; the simulation loop only ever takes a read lock to
// iterate senders for broadcast.
package registry

import "sync"

// OutboundSender is the per-connection outbound queue a Client is bound to
// once its WebSocket upgrades. nil until then.
type OutboundSender chan<- []byte

// Client is one registered connection. ConnectionID is the opaque
// WS-upgrade key; UserID is the simulation-facing player identity.
type Client struct {
	ConnectionID string
	UserID       string
	Topics       []string
	Outbound     OutboundSender
}

// DefaultTopics is the topic list a freshly registered Client carries when
// none is specified.
var DefaultTopics = []string{"cats"}

// Registry is the shared connection-id -> Client map.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Insert adds a Client with no outbound sender bound yet, as the HTTP
// register handler does before a WebSocket ever connects.
func (r *Registry) Insert(connectionID, userID string) *Client {
	c := &Client{
		ConnectionID: connectionID,
		UserID:       userID,
		Topics:       append([]string(nil), DefaultTopics...),
	}
	r.mu.Lock()
	r.clients[connectionID] = c
	r.mu.Unlock()
	return c
}

// Bind attaches the outbound sender once the WebSocket for connectionID
// upgrades. It reports false if the connection was removed in the meantime.
func (r *Registry) Bind(connectionID string, outbound OutboundSender) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[connectionID]
	if !ok {
		return false
	}
	c.Outbound = outbound
	return true
}

// Get returns the Client for connectionID, if registered.
func (r *Registry) Get(connectionID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connectionID]
	return c, ok
}

// Remove drops a Client on disconnect or DELETE /register/{id}.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	delete(r.clients, connectionID)
	r.mu.Unlock()
}

// Broadcast enqueues payload to every Client with a bound outbound sender.
// A channel that cannot take the payload at once is skipped rather than
// blocking the caller (outbound channels are never closed), matching
// step 7's "a failed enqueue is logged but does not fault the loop."
// It returns the connection-ids whose send did not go through.
func (r *Registry) Broadcast(payload []byte) (failed []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if c.Outbound == nil {
			continue
		}
		select {
		case c.Outbound <- payload:
		default:
			failed = append(failed, id)
		}
	}
	return failed
}

// Publish enqueues payload to every Client whose Topics contains topic and,
// if userID is non-empty, whose UserID matches.
func (r *Registry) Publish(topic, userID string, payload []byte) (failed []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if c.Outbound == nil {
			continue
		}
		if userID != "" && c.UserID != userID {
			continue
		}
		if !hasTopic(c.Topics, topic) {
			continue
		}
		select {
		case c.Outbound <- payload:
		default:
			failed = append(failed, id)
		}
	}
	return failed
}

// Len reports the current number of registered connections, used by
// package telemetry's periodic stats log.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func hasTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}
