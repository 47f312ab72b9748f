package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hook.Port != 18470 {
		t.Errorf("port = %d", cfg.Hook.Port)
	}
	if cfg.Timeouts.ApprovalMS != 120000 || cfg.Timeouts.QuestionMS != 300000 {
		t.Errorf("timeouts = %+v", cfg.Timeouts)
	}
	if cfg.Chat.Platform != PlatformDiscord || cfg.Language != LanguageEN {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadJSON5WithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		// hook listener
		hook: { port: 19000 },
		chat: { platform: "slack", token: "xoxb-test" },
		language: "ko",
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hook.Port != 19000 {
		t.Errorf("port = %d", cfg.Hook.Port)
	}
	if cfg.Chat.Platform != PlatformSlack || cfg.Chat.Token != "xoxb-test" {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.Language != LanguageKO {
		t.Errorf("language = %s", cfg.Language)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("AGENT_DISCORD_PORT", "20001")
	t.Setenv("DISCODE_QUESTION_TIMEOUT_MS", "60000")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hook.Port != 20001 {
		t.Errorf("port = %d", cfg.Hook.Port)
	}
	if cfg.Timeouts.QuestionMS != 60000 {
		t.Errorf("question timeout = %d", cfg.Timeouts.QuestionMS)
	}
}

func TestLoadRejectsUnknownPlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{chat: {platform: "irc"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
