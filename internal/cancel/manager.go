// Package cancel tracks cancellation tokens for in-flight generations.
// Tokens are created before the real message id is known and re-registered
// once the final id is assigned, so Cancel works for either id.
package cancel

import (
	"sync"
	"sync/atomic"
)

// Token is a one-shot cancellation flag shared between the caller and the
// generation loop, which observes it at chunk boundaries.
type Token struct {
	cancelled atomic.Bool
}

// NewToken creates a fresh, uncancelled token.
func NewToken() *Token {
	return &Token{}
}

// Cancelled reports whether the token has been cancelled.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}

// cancel flips the flag; only the first call returns true.
func (t *Token) cancel() bool {
	return t.cancelled.CompareAndSwap(false, true)
}

// Manager is the process-wide registry of active generation tokens. It is
// the only state shared between concurrent generation tasks.
type Manager struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

// NewManager creates an empty token registry.
func NewManager() *Manager {
	return &Manager{
		tokens: make(map[string]*Token),
	}
}

// Register binds a token to an id. Registering an already-bound token under
// a second id (the final message id) keeps both bindings live until
// Complete, because the caller may race on which id it knows.
func (m *Manager) Register(id string, token *Token) {
	if id == "" || token == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = token
}

// Cancel cancels the token registered under id. Returns true only on the
// transition; cancelling an unknown or already-cancelled id returns false.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	token, ok := m.tokens[id]
	m.mu.Unlock()

	if !ok {
		return false
	}
	return token.cancel()
}

// Complete removes all bindings of the token registered under id. Called
// exactly once, after the terminal stream event is determined, to bound
// memory growth.
func (m *Manager) Complete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[id]
	if !ok {
		return
	}
	for key, t := range m.tokens {
		if t == token {
			delete(m.tokens, key)
		}
	}
}

// Active returns the number of registered ids, for diagnostics and tests.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
