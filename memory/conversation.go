package memory

import (
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

// Message is one conversation entry with a stable identity.
type Message struct {
	ID    string
	Param anthropic.MessageParam
}

// NewMessage wraps a provider message param with a fresh identifier.
func NewMessage(param anthropic.MessageParam) Message {
	return Message{ID: uuid.NewString(), Param: param}
}

// Store persists conversation histories keyed by conversation id.
type Store interface {
	// Get returns the stored history for id, or an empty slice for a
	// conversation that has never been written.
	Get(id string) []Message
	// Put replaces the stored history for id.
	Put(id string, msgs []Message)
}

// MapStore is an in-process Store backed by a map.
type MapStore struct {
	mu            sync.RWMutex
	conversations map[string][]Message
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{conversations: make(map[string][]Message)}
}

// Get returns a copy of the history for id.
func (s *MapStore) Get(id string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.conversations[id]
	out := make([]Message, len(stored))
	copy(out, stored)
	return out
}

// Put replaces the history for id with a copy of msgs. Concurrent turns on
// the same conversation are last-write-wins.
func (s *MapStore) Put(id string, msgs []Message) {
	stored := make([]Message, len(msgs))
	copy(stored, msgs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = stored
}
