package concurrency

import "sync"

// ClientLockManager serializes event processing per client. Events from
// different clients proceed fully in parallel; two events from the same
// client never race on one booking session.
type ClientLockManager struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

func NewClientLockManager() *ClientLockManager {
	return &ClientLockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *ClientLockManager) Lock(clientID string) {
	m.mu.Lock()
	lock, ok := m.locks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[clientID] = lock
	}
	m.mu.Unlock()
	lock.Lock()
}

func (m *ClientLockManager) Unlock(clientID string) {
	m.mu.Lock()
	lock, ok := m.locks[clientID]
	if ok {
		lock.Unlock()
	}
	m.mu.Unlock()
}
