package journal

import (
	"sync"

	"github.com/omimic12/proxy6-automator/pkg"
)

// Memory keeps entries in append order for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	entries []pkg.Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(entry pkg.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
}

// Entries returns a snapshot, later appends do not show up in it.
func (m *Memory) Entries() []pkg.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]pkg.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
