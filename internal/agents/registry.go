// Package agents describes the supported coding-agent CLIs and how discode
// launches them and their chat channels.
package agents

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// AdapterConfig describes one agent CLI.
type AdapterConfig struct {
	Name          string // routing key, e.g. "claude"
	DisplayName   string
	Command       string // binary looked up on PATH
	ChannelSuffix string // channel naming: "<project><suffix>"
}

// Adapter wraps one agent CLI: install checks, launch command assembly and
// the env its hook plugin needs.
type Adapter struct {
	Config AdapterConfig
}

// IsInstalled reports whether the agent binary is on PATH.
func (a *Adapter) IsInstalled() bool {
	_, err := exec.LookPath(a.Config.Command)
	return err == nil
}

// GetStartCommand builds the interactive start command for a project path.
func (a *Adapter) GetStartCommand(path string, permissionAllow bool) []string {
	cmd := []string{a.Config.Command}
	if permissionAllow && a.Config.Name == "claude" {
		cmd = append(cmd, "--permission-mode", "acceptEdits")
	}
	if path != "" {
		cmd = append(cmd, "--cwd", path)
	}
	return cmd
}

// InstallIntegration wires the agent's hook plugin into a project. Mode is
// adapter-specific ("local", "container").
func (a *Adapter) InstallIntegration(path, mode string) error {
	if path == "" {
		return fmt.Errorf("install %s integration: empty project path", a.Config.Name)
	}
	// Hook scripts are shipped by the orchestrator; nothing to copy here yet.
	return nil
}

// InjectContainerPlugins copies the hook plugin into a running container.
func (a *Adapter) InjectContainerPlugins(containerID string) error {
	if containerID == "" {
		return fmt.Errorf("inject %s plugins: empty container id", a.Config.Name)
	}
	return nil
}

// BuildLaunchCommand combines the base command with an integration wrapper.
func (a *Adapter) BuildLaunchCommand(cmd []string, integration string) []string {
	if integration == "" {
		return cmd
	}
	return append([]string{integration}, cmd...)
}

// GetExtraEnvVars returns adapter-specific launch env.
func (a *Adapter) GetExtraEnvVars(permissionAllow bool) map[string]string {
	env := map[string]string{}
	if permissionAllow {
		env["DISCODE_PERMISSION_ALLOW"] = "1"
	}
	return env
}

// PluginEnv is the env every hook plugin receives at launch.
func PluginEnv(project, agent, instance string, port int) map[string]string {
	return map[string]string{
		"AGENT_DISCORD_PROJECT":  project,
		"AGENT_DISCORD_AGENT":    agent,
		"AGENT_DISCORD_INSTANCE": instance,
		"AGENT_DISCORD_PORT":     fmt.Sprintf("%d", port),
	}
}

// Registry holds the known adapters.
type Registry struct {
	adapters map[string]*Adapter
}

// NewRegistry creates a registry with the built-in adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]*Adapter)}
	for _, cfg := range []AdapterConfig{
		{Name: "claude", DisplayName: "Claude Code", Command: "claude", ChannelSuffix: ""},
		{Name: "codex", DisplayName: "Codex", Command: "codex", ChannelSuffix: "-codex"},
		{Name: "gemini", DisplayName: "Gemini CLI", Command: "gemini", ChannelSuffix: "-gemini"},
		{Name: "opencode", DisplayName: "OpenCode", Command: "opencode", ChannelSuffix: "-oc"},
	} {
		r.adapters[cfg.Name] = &Adapter{Config: cfg}
	}
	return r
}

// Get returns the adapter for a name, or nil.
func (r *Registry) Get(name string) *Adapter {
	return r.adapters[name]
}

// Names lists registered adapter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseChannelName splits a chat channel name into project and adapter by
// suffix. Suffixed adapters match first; an unsuffixed name maps to the
// default claude adapter.
func (r *Registry) ParseChannelName(name string) (project string, adapter *Adapter, err error) {
	if name == "" {
		return "", nil, fmt.Errorf("empty channel name")
	}
	var best *Adapter
	bestLen := -1
	for _, a := range r.adapters {
		suffix := a.Config.ChannelSuffix
		if suffix == "" {
			continue
		}
		if strings.HasSuffix(name, suffix) && len(suffix) > bestLen && len(name) > len(suffix) {
			best = a
			bestLen = len(suffix)
		}
	}
	if best != nil {
		return strings.TrimSuffix(name, best.Config.ChannelSuffix), best, nil
	}
	return name, r.adapters["claude"], nil
}
