package publisher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "host": "misskey.example",
  "token": "tok",
  "llm": {"provider": "openai", "model": "gpt-4o-mini"},
  "generation": {"chunk_size": 3, "max_attempts": 50},
  "timeline": {"limit": 20, "redis_addr": "localhost:6379"}
}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Host != "misskey.example" || cfg.Token != "tok" {
		t.Fatalf("account = %q %q", cfg.Host, cfg.Token)
	}
	if cfg.LLM == nil || cfg.LLM.Provider != "openai" {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
	if cfg.Generation.ChunkSize != 3 || cfg.Generation.MaxAttempts != 50 {
		t.Fatalf("generation = %+v", cfg.Generation)
	}
	if cfg.Timeline.Limit != 20 || cfg.Timeline.RedisAddr != "localhost:6379" {
		t.Fatalf("timeline = %+v", cfg.Timeline)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
host: misskey.example
token: tok
visibility: home
tokenizer:
  user_dict_path: ./userdict.txt
generation:
  max_steps: 20
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Visibility != "home" || cfg.Tokenizer.UserDictPath != "./userdict.txt" || cfg.Generation.MaxSteps != 20 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want ErrNotExist got %v", err)
	}
	if _, err := LoadConfig(writeFile(t, "bad.json", "{")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NOTEGEN_HOST":         " env.example ",
		"NOTEGEN_MAX_ATTEMPTS": "12",
		"NOTEGEN_LLM_API_KEY":  "sk-env",
		"REDIS_ADDR":           "redis:6379",
		"REDIS_DB":             "2",
		"NOTEGEN_TOKEN":        "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := ApplyEnv(Config{Host: "file.example", Token: "file-token"}, lookup)
	if cfg.Host != "env.example" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Token != "file-token" {
		t.Errorf("empty env must not override token, got %q", cfg.Token)
	}
	if cfg.Generation.MaxAttempts != 12 {
		t.Errorf("max attempts = %d", cfg.Generation.MaxAttempts)
	}
	if cfg.LLM == nil || cfg.LLM.APIKey != "sk-env" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Timeline.RedisAddr != "redis:6379" || cfg.Timeline.RedisDB != 2 {
		t.Errorf("timeline = %+v", cfg.Timeline)
	}
}

func TestValidateAccount(t *testing.T) {
	if err := (Config{Host: "h"}).validateAccount(); err == nil {
		t.Fatalf("missing token should fail")
	}
	if err := (Config{Host: "h", Token: "t"}).validateAccount(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
