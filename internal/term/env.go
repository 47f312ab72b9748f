package term

import "sync"

// EnvRegistry holds per-project environment overlays merged into plugin
// launch environments. Values set later win.
type EnvRegistry struct {
	mu   sync.Mutex
	envs map[string]map[string]string
}

// NewEnvRegistry creates an empty registry.
func NewEnvRegistry() *EnvRegistry {
	return &EnvRegistry{envs: make(map[string]map[string]string)}
}

// Set stores one variable for a project.
func (r *EnvRegistry) Set(project, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[project]
	if !ok {
		env = make(map[string]string)
		r.envs[project] = env
	}
	env[key] = value
}

// Merge overlays a project's variables onto base and returns the result.
// Base is not mutated.
func (r *EnvRegistry) Merge(project string, base map[string]string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(base)+len(r.envs[project]))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range r.envs[project] {
		out[k] = v
	}
	return out
}

// Clear drops a project's overlay.
func (r *EnvRegistry) Clear(project string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.envs, project)
}
