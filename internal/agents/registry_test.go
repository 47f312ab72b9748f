package agents

import (
	"reflect"
	"testing"
)

func TestParseChannelName(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		channel string
		project string
		adapter string
	}{
		{"myproj", "myproj", "claude"},
		{"myproj-codex", "myproj", "codex"},
		{"myproj-gemini", "myproj", "gemini"},
		{"myproj-oc", "myproj", "opencode"},
		{"api-docs", "api-docs", "claude"},
	}
	for _, tt := range tests {
		project, adapter, err := r.ParseChannelName(tt.channel)
		if err != nil {
			t.Fatalf("%s: %v", tt.channel, err)
		}
		if project != tt.project || adapter.Config.Name != tt.adapter {
			t.Errorf("%s = (%s, %s), want (%s, %s)", tt.channel, project, adapter.Config.Name, tt.project, tt.adapter)
		}
	}
}

func TestParseChannelNameRejectsEmpty(t *testing.T) {
	r := NewRegistry()
	if _, _, err := r.ParseChannelName(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	if a := r.Get("claude"); a == nil || a.Config.DisplayName != "Claude Code" {
		t.Errorf("claude adapter = %+v", a)
	}
	if r.Get("vim") != nil {
		t.Error("unknown adapter should be nil")
	}
	want := []string{"claude", "codex", "gemini", "opencode"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v", got)
	}
}

func TestBuildLaunchCommand(t *testing.T) {
	a := NewRegistry().Get("claude")
	base := a.GetStartCommand("/work/proj", true)
	wrapped := a.BuildLaunchCommand(base, "discode-bridge")
	if wrapped[0] != "discode-bridge" || wrapped[1] != "claude" {
		t.Errorf("wrapped = %v", wrapped)
	}
	if got := a.BuildLaunchCommand(base, ""); !reflect.DeepEqual(got, base) {
		t.Errorf("no integration should pass through, got %v", got)
	}
}

func TestPluginEnv(t *testing.T) {
	env := PluginEnv("proj", "claude", "2", 18470)
	want := map[string]string{
		"AGENT_DISCORD_PROJECT":  "proj",
		"AGENT_DISCORD_AGENT":    "claude",
		"AGENT_DISCORD_INSTANCE": "2",
		"AGENT_DISCORD_PORT":     "18470",
	}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("env = %v", env)
	}
}
