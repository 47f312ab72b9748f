package routing

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// routingFile is the on-disk shape: project name → entry.
type routingFile struct {
	Projects map[string]*Project `json:"projects"`
}

// LoadFile reads a routing table from a json5 file. A missing file yields an
// empty table so a fresh install starts clean.
func LoadFile(path string) (*Table, error) {
	t := NewTable()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read routing file: %w", err)
	}

	var file routingFile
	if err := json5.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routing file: %w", err)
	}
	for name, p := range file.Projects {
		if p.Channels == nil {
			p.Channels = map[string]string{}
		}
		if p.Instances == nil {
			p.Instances = map[string]Instance{}
		}
		if err := t.Upsert(name, p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Reload re-reads the file into the existing table, swapping atomically.
func (t *Table) Reload(path string) error {
	fresh, err := LoadFile(path)
	if err != nil {
		return err
	}
	fresh.mu.RLock()
	projects := fresh.projects
	fresh.mu.RUnlock()
	return t.Replace(projects)
}
