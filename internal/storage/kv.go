package storage

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested key or record does not exist.
var ErrNotFound = errors.New("not found")

// KV is the local key-value store the gallery persists its comment and
// review sequences into. Values are opaque strings (JSON documents).
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// SetMany writes every entry or none of them.
	SetMany(entries map[string]string) error
}

// BackupRun records one scheduled or manual snapshot written to disk.
type BackupRun struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Comments  int       `json:"comments"`
	Reviews   int       `json:"reviews"`
	CreatedAt time.Time `json:"createdAt"`
	LastError string    `json:"lastError,omitempty"`
}

// Memory is a map-backed KV used by tests and by `store.backend = memory`.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string

	// FailWrites makes every Set/SetMany return the given error.
	FailWrites error
}

// NewMemory returns an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	return nil
}

func (m *Memory) SetMany(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}
