// Package routing maps hook events onto chat channels. The table is produced
// by the orchestrator (CLI / project setup); the event pipeline only reads it.
package routing

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultAgent is assumed when an event carries no agent type and the
// project has more than one agent enabled.
const DefaultAgent = "claude"

var (
	ErrUnknownProject = errors.New("unknown project")
	ErrUnknownChannel = errors.New("no channel for agent")
)

// Instance binds one running agent instance to a channel.
type Instance struct {
	AgentType  string `json:"agentType"`
	ChannelID  string `json:"channelId"`
	InstanceID string `json:"instanceId,omitempty"`
}

// Project is one routing entry.
type Project struct {
	ProjectPath   string              `json:"projectPath"`
	AgentsEnabled []string            `json:"agentsEnabled"`
	Channels      map[string]string   `json:"channels"`  // agentType → channelID
	Instances     map[string]Instance `json:"instances"` // instanceKey → instance
}

// Route is the read-only resolution result for one event.
type Route struct {
	ProjectName string
	ProjectPath string
	AgentType   string
	InstanceID  string
	InstanceKey string
	ChannelID   string
}

// SerializeKey is the per-conversation serialization key:
// "project\x00instanceKey". All mutating pipeline work for one key runs in
// arrival order.
func (r Route) SerializeKey() string {
	return r.ProjectName + "\x00" + r.InstanceKey
}

// InstanceKey builds the instance key: agentType, or agentType#instanceId
// for multi-instance projects.
func InstanceKey(agentType, instanceID string) string {
	if instanceID == "" {
		return agentType
	}
	return agentType + "#" + instanceID
}

// Table holds the project routing entries. Safe for concurrent use: the
// orchestrator swaps entries, the pipeline resolves.
type Table struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewTable creates an empty routing table.
func NewTable() *Table {
	return &Table{projects: make(map[string]*Project)}
}

// Upsert installs or replaces a project entry after validating it.
func (t *Table) Upsert(name string, p *Project) error {
	if err := t.validate(name, p); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projects[name] = p
	return nil
}

// Remove drops a project entry.
func (t *Table) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.projects, name)
}

// Replace swaps the whole table, used by the config watcher on reload.
func (t *Table) Replace(projects map[string]*Project) error {
	for name, p := range projects {
		if err := (&Table{projects: projects}).validate(name, p); err != nil {
			return err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projects = projects
	return nil
}

// Project returns the entry for a name, or nil.
func (t *Table) Project(name string) *Project {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.projects[name]
}

// Names lists the registered project names.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.projects))
	for name := range t.projects {
		names = append(names, name)
	}
	return names
}

// validate enforces the table invariants: every enabled agent has a
// non-empty channel, and no channel appears in two projects.
func (t *Table) validate(name string, p *Project) error {
	if name == "" {
		return fmt.Errorf("project name must be non-empty")
	}
	for _, agent := range p.AgentsEnabled {
		if p.Channels[agent] == "" {
			return fmt.Errorf("project %s: agent %s has no channel", name, agent)
		}
	}
	seen := make(map[string]string)
	t.mu.RLock()
	for otherName, other := range t.projects {
		if otherName == name {
			continue
		}
		for _, ch := range other.Channels {
			seen[ch] = otherName
		}
	}
	t.mu.RUnlock()
	for agent, ch := range p.Channels {
		if owner, ok := seen[ch]; ok {
			return fmt.Errorf("project %s: channel %s for %s already bound to project %s", name, ch, agent, owner)
		}
	}
	return nil
}

// Resolve maps (projectName, agentType?, instanceId?) to a Route.
// agentType falls back to the project's sole enabled agent, then to
// DefaultAgent. Channel lookup tries the instance binding first, then the
// per-agent channel map.
func (t *Table) Resolve(projectName, agentType, instanceID string) (Route, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p := t.projects[projectName]
	if p == nil {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownProject, projectName)
	}

	if agentType == "" {
		if len(p.AgentsEnabled) == 1 {
			agentType = p.AgentsEnabled[0]
		} else {
			agentType = DefaultAgent
		}
	}

	key := InstanceKey(agentType, instanceID)
	channelID := ""
	if inst, ok := p.Instances[key]; ok {
		channelID = inst.ChannelID
	}
	if channelID == "" {
		channelID = p.Channels[agentType]
	}
	if channelID == "" {
		return Route{}, fmt.Errorf("%w: project %s agent %s", ErrUnknownChannel, projectName, agentType)
	}

	return Route{
		ProjectName: projectName,
		ProjectPath: p.ProjectPath,
		AgentType:   agentType,
		InstanceID:  instanceID,
		InstanceKey: key,
		ChannelID:   channelID,
	}, nil
}
