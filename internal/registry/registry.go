package registry

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrNotRegistered = errors.New("participant not registered")

type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Conn      string    `json:"-"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry is the process-wide connection table: one entry per known
// participant, keyed both by participant id and by the connection handle
// currently carrying them. Reconnecting replaces the handle; disconnecting
// clears it.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Participant
	byConn map[string]*Participant
}

func New() *Registry {
	return &Registry{
		byID:   make(map[string]*Participant),
		byConn: make(map[string]*Participant),
	}
}

// Register binds conn to a participant identity. A returning participant id
// takes over from any stale handle it still held.
func (r *Registry) Register(conn, id, name string) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		p = &Participant{ID: id, Name: name, CreatedAt: time.Now()}
		r.byID[id] = p
	}
	if p.Conn != "" && p.Conn != conn {
		delete(r.byConn, p.Conn)
	}
	p.Name = name
	p.Conn = conn
	r.byConn[conn] = p
	return snapshot(p)
}

func (r *Registry) Resolve(conn string) (*Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byConn[conn]
	if !ok {
		return nil, ErrNotRegistered
	}
	return snapshot(p), nil
}

func (r *Registry) Lookup(id string) (*Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotRegistered
	}
	return snapshot(p), nil
}

// SetSession records which session a participant is currently joined to, or
// clears it with an empty id.
func (r *Registry) SetSession(id, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		p.SessionID = sessionID
	}
}

// Forget drops a connection handle. The participant entry itself is removed
// too: departure on disconnect is immediate, there is no reconnect window.
func (r *Registry) Forget(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[conn]
	if !ok {
		return
	}
	delete(r.byConn, conn)
	delete(r.byID, p.ID)
}

func snapshot(p *Participant) *Participant {
	cp := *p
	return &cp
}

// Verifier is the identity boundary: it turns whatever credential the client
// presented into a stable participant id and display name. Called once per
// connection at registration, never during session operations.
type Verifier interface {
	Verify(ctx context.Context, credential, displayName string) (id, name string, err error)
}

// Anonymous accepts any client: the credential doubles as the participant id
// when present, otherwise a fresh one is minted.
type Anonymous struct{}

func (Anonymous) Verify(_ context.Context, credential, displayName string) (string, string, error) {
	id := credential
	if id == "" {
		id = randID(12)
	}
	name := displayName
	if name == "" {
		name = "player-" + id[:4]
	}
	return id, name, nil
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
