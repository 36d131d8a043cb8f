package publisher

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the bot account and generation settings.
type Config struct {
	Host       string           `json:"host" yaml:"host"`
	Token      string           `json:"token" yaml:"token"`
	Visibility string           `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	LLM        *LLMConfig       `json:"llm,omitempty" yaml:"llm,omitempty"`
	ServerAddr string           `json:"server_addr,omitempty" yaml:"server_addr,omitempty"`
	LogLevel   string           `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Tokenizer  TokenizerConfig  `json:"tokenizer" yaml:"tokenizer"`
	Timeline   TimelineConfig   `json:"timeline" yaml:"timeline"`
}

// LLMConfig 选择回复来源；provider 为空或 markov 时使用 chunk 拼接。
type LLMConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// GenerationConfig mirrors generator.Options; zero values fall back to defaults.
type GenerationConfig struct {
	ChunkSize      int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	MaxMatchLength int `json:"max_match_length,omitempty" yaml:"max_match_length,omitempty"`
	MaxSteps       int `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
	MaxAttempts    int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
}

// TokenizerConfig points at optional dictionaries.
type TokenizerConfig struct {
	DictPath     string `json:"dict_path,omitempty" yaml:"dict_path,omitempty"`
	UserDictPath string `json:"user_dict_path,omitempty" yaml:"user_dict_path,omitempty"`
}

// TimelineConfig controls the note corpus.
type TimelineConfig struct {
	// Size is how many notes the store keeps.
	Size int `json:"size,omitempty" yaml:"size,omitempty"`
	// Limit is how many notes are fetched and used per generation.
	Limit         int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	RedisKey      string `json:"redis_key,omitempty" yaml:"redis_key,omitempty"`
}

// LoadConfig reads JSON or YAML (by extension) config from disk.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays NOTEGEN_* and REDIS_* variables onto cfg.
// lookup is usually os.LookupEnv.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) Config {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	str("NOTEGEN_HOST", &cfg.Host)
	str("NOTEGEN_TOKEN", &cfg.Token)
	str("NOTEGEN_SERVER_ADDR", &cfg.ServerAddr)
	str("NOTEGEN_LOG_LEVEL", &cfg.LogLevel)
	str("NOTEGEN_DICT_PATH", &cfg.Tokenizer.DictPath)
	str("NOTEGEN_USER_DICT_PATH", &cfg.Tokenizer.UserDictPath)
	num("NOTEGEN_MAX_ATTEMPTS", &cfg.Generation.MaxAttempts)
	if v, ok := lookup("NOTEGEN_LLM_API_KEY"); ok && v != "" {
		if cfg.LLM == nil {
			cfg.LLM = &LLMConfig{}
		}
		cfg.LLM.APIKey = v
	}
	str("REDIS_ADDR", &cfg.Timeline.RedisAddr)
	str("REDIS_PASSWORD", &cfg.Timeline.RedisPassword)
	num("REDIS_DB", &cfg.Timeline.RedisDB)
	return cfg
}

// validateAccount reports whether the config can talk to the API.
func (c Config) validateAccount() error {
	if c.Host == "" || c.Token == "" {
		return errors.New("config must include host and token")
	}
	return nil
}
