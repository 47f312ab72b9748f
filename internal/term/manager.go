package term

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ToWindowID builds the canonical window id "project:window". Neither part
// may itself contain a colon; ParseWindowID depends on the single separator.
func ToWindowID(project, window string) string {
	return project + ":" + window
}

// ParseWindowID splits a window id back into its parts.
func ParseWindowID(id string) (project, window string, err error) {
	i := strings.Index(id, ":")
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("malformed window id %q", id)
	}
	return id[:i], id[i+1:], nil
}

// Manager owns the process's window registry.
type Manager struct {
	mu      sync.Mutex
	windows map[string]*Window
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{windows: make(map[string]*Window)}
}

// Get returns the window for an id, or nil.
func (m *Manager) Get(id string) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[id]
}

// Ensure returns the window for an id, creating it at the default geometry
// when absent.
func (m *Manager) Ensure(id string) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		w = NewWindow(id, DefaultCols, DefaultRows)
		m.windows[id] = w
	}
	return w
}

// Remove drops a window from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, id)
}

// IDs lists registered window ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.windows))
	for id := range m.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
