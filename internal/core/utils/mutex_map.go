package utils

import (
	"fmt"
	"sync"
)

type keyedMutex struct {
	mu      sync.Mutex
	waiters int
}

// MutexMap hands out one mutex per key. Entries are created on first use and
// dropped once no goroutine holds or waits for them.
type MutexMap struct {
	edit    sync.Mutex
	mutexes map[string]*keyedMutex
	maxSize int
}

func NewMutexMap(maxSize int) *MutexMap {
	return &MutexMap{
		mutexes: make(map[string]*keyedMutex),
		maxSize: maxSize,
	}
}

func (m *MutexMap) Lock(key string) error {
	m.edit.Lock()

	entry := m.mutexes[key]
	if entry == nil {
		if len(m.mutexes) >= m.maxSize {
			m.edit.Unlock()
			return fmt.Errorf("unable to lock %s: max number of locked keys (%d) reached", key, m.maxSize)
		}

		entry = &keyedMutex{}
		m.mutexes[key] = entry
	}

	entry.waiters++
	m.edit.Unlock()

	entry.mu.Lock()

	return nil
}

func (m *MutexMap) Unlock(key string) error {
	m.edit.Lock()
	defer m.edit.Unlock()

	entry := m.mutexes[key]
	if entry == nil {
		return fmt.Errorf("key %s not found", key)
	}

	entry.mu.Unlock()
	entry.waiters--

	if entry.waiters == 0 {
		delete(m.mutexes, key)
	}

	return nil
}
