package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
server:
  port: "9090"
line:
  channel_secret: "file-secret"
  channel_access_token: "file-token"
quiz:
  completion_phrase: "finished"
  redeem_code: "secret-code"
  questions:
    - prompt: "Q1"
      options: ["A", "B"]
      answer: "A"
      hint: "try again"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Quiz.CompletionPhrase != "finished" || cfg.Quiz.RedeemCode != "secret-code" {
		t.Fatalf("quiz phrases not loaded: %+v", cfg.Quiz)
	}
	if len(cfg.Quiz.Questions) != 1 || cfg.Quiz.Questions[0].Answer != "A" {
		t.Fatalf("questions not loaded: %+v", cfg.Quiz.Questions)
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("LINE_CHANNEL_SECRET", "env-secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "env-token")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Line.ChannelSecret != "env-secret" || cfg.Line.ChannelAccessToken != "env-token" {
		t.Fatalf("env overrides not applied: %+v", cfg.Line)
	}
}

func TestDefaultScriptApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"8080\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Quiz.Questions) == 0 {
		t.Fatalf("expected default question script")
	}
	if cfg.Quiz.RedeemCode == "" || cfg.Quiz.CompletionPhrase == "" {
		t.Fatalf("expected default phrases, got %+v", cfg.Quiz)
	}
}
