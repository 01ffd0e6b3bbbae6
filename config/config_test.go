package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"quiz": {"email": "me@example.com", "secret": "s3cret"},
		"llm": {"api_key": "token", "model": "openai/gpt-4o"},
		"solver": {"run_budget": "100s"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Quiz.Email != "me@example.com" || cfg.Quiz.Secret != "s3cret" {
		t.Fatalf("credentials not loaded: %+v", cfg.Quiz)
	}
	if cfg.Solver.RunBudget != 100*time.Second {
		t.Fatalf("run_budget = %v, want 100s", cfg.Solver.RunBudget)
	}
	// Unset fields fall back to defaults.
	if cfg.Solver.SubmitTimeout != 30*time.Second {
		t.Fatalf("submit_timeout default = %v, want 30s", cfg.Solver.SubmitTimeout)
	}
	if cfg.LLM.BaseURL == "" {
		t.Fatalf("llm.base_url default missing")
	}
	if cfg.Server.Address != ":8000" {
		t.Fatalf("server.address default = %q", cfg.Server.Address)
	}
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("QUIZAGENT_QUIZ_EMAIL", "env@example.com")
	t.Setenv("QUIZAGENT_QUIZ_SECRET", "env-secret")
	t.Setenv("QUIZAGENT_LLM_API_KEY", "env-token")

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Quiz.Email != "env@example.com" || cfg.Quiz.Secret != "env-secret" {
		t.Fatalf("env credentials not loaded: %+v", cfg.Quiz)
	}
	if cfg.LLM.APIKey != "env-token" {
		t.Fatalf("env api key not loaded")
	}
	if cfg.Solver.RunBudget != 170*time.Second {
		t.Fatalf("run_budget default = %v, want 170s", cfg.Solver.RunBudget)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"quiz": {"secret": "s"}, "llm": {"api_key": "k"}}`},
		{"missing secret", `{"quiz": {"email": "e@x"}, "llm": {"api_key": "k"}}`},
		{"missing api key", `{"quiz": {"email": "e@x", "secret": "s"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("writing config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingExplicitFileFails(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
