// Package config загружает настройки агента из YAML/TOML/JSON и переменных окружения.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey - ключ API не найден ни в файле, ни в окружении.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

// Режимы распознавания вызовов инструментов.
const (
	ModeText       = "text"
	ModeStructured = "structured"
	ModeAuto       = "auto"
)

// DeepSeekBaseURL - endpoint по умолчанию для моделей deepseek-*.
const DeepSeekBaseURL = "https://api.deepseek.com/v1"

// Config - корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" toml:"llm" json:"llm"`
	Agent     AgentConfig     `yaml:"agent" toml:"agent" json:"agent"`
	Reflector ReflectorConfig `yaml:"reflector" toml:"reflector" json:"reflector"`
	Retry     RetryConfig     `yaml:"retry" toml:"retry" json:"retry"`
	Prompts   PromptsConfig   `yaml:"prompts" toml:"prompts" json:"prompts"`
	Tools     ToolsConfig     `yaml:"tools" toml:"tools" json:"tools"`
	S3        S3Config        `yaml:"s3" toml:"s3" json:"s3"`
	Log       LogConfig       `yaml:"log" toml:"log" json:"log"`
}

// LLMConfig - параметры модели и endpoint'а.
type LLMConfig struct {
	Provider     string   `yaml:"provider" toml:"provider" json:"provider"` // "openai", "deepseek", ... (информационно)
	Model        string   `yaml:"model" toml:"model" json:"model"`
	APIKey       string   `yaml:"api_key" toml:"api_key" json:"api_key"` // Поддерживает ${VAR}
	BaseURL      string   `yaml:"base_url" toml:"base_url" json:"base_url"`
	Organization string   `yaml:"organization" toml:"organization" json:"organization"`
	Timeout      Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	Temperature  float64  `yaml:"temperature" toml:"temperature" json:"temperature"`
	MaxTokens    int      `yaml:"max_tokens" toml:"max_tokens" json:"max_tokens"`
}

// AgentConfig - параметры цикла агента.
type AgentConfig struct {
	SystemPrompt       string   `yaml:"system_prompt" toml:"system_prompt" json:"system_prompt"`
	Mode               string   `yaml:"mode" toml:"mode" json:"mode"`
	MaxIterations      int      `yaml:"max_iterations" toml:"max_iterations" json:"max_iterations"`
	MaxToolResultChars int      `yaml:"max_tool_result_chars" toml:"max_tool_result_chars" json:"max_tool_result_chars"`
	DefaultTools       []string `yaml:"default_tools" toml:"default_tools" json:"default_tools"`
}

// ReflectorConfig - настройки самопроверки ответа.
type ReflectorConfig struct {
	Enabled      bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	Temperature  float64 `yaml:"temperature" toml:"temperature" json:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" toml:"max_tokens" json:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt" toml:"system_prompt" json:"system_prompt"`
}

// RetryConfig - повторы вызова модели.
type RetryConfig struct {
	MaxAttempts       int      `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
	MinDelay          Duration `yaml:"min_delay" toml:"min_delay" json:"min_delay"`
	MaxDelay          Duration `yaml:"max_delay" toml:"max_delay" json:"max_delay"`
	RequestsPerMinute int      `yaml:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute"` // 0 - без лимита
}

// PromptsConfig - каталог YAML-промптов, переопределяющих встроенные.
type PromptsConfig struct {
	Dir string `yaml:"dir" toml:"dir" json:"dir"`
}

// ToolsConfig - настройки встроенных инструментов.
type ToolsConfig struct {
	SerpAPIKey    string   `yaml:"serpapi_key" toml:"serpapi_key" json:"serpapi_key"`
	HTTPTimeout   Duration `yaml:"http_timeout" toml:"http_timeout" json:"http_timeout"`
	SQLitePath    string   `yaml:"sqlite_path" toml:"sqlite_path" json:"sqlite_path"`
	FileStatsRoot string   `yaml:"file_stats_root" toml:"file_stats_root" json:"file_stats_root"`
}

// S3Config - настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region" toml:"region" json:"region"`
	Bucket    string `yaml:"bucket" toml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access_key" toml:"access_key" json:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key" toml:"secret_key" json:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl" toml:"use_ssl" json:"use_ssl"`
}

// Enabled сообщает, настроено ли хранилище.
func (s S3Config) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// LogConfig - файл и уровень лога.
type LogConfig struct {
	File  string `yaml:"file" toml:"file" json:"file"`
	Level string `yaml:"level" toml:"level" json:"level"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			Timeout:     Duration(60 * time.Second),
			Temperature: 0.7,
		},
		Agent: AgentConfig{
			SystemPrompt:       "You are a helpful AI assistant.",
			Mode:               ModeText,
			MaxIterations:      10,
			MaxToolResultChars: 4000,
		},
		Reflector: ReflectorConfig{
			Temperature: 0.7,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			MinDelay:    Duration(time.Second),
			MaxDelay:    Duration(60 * time.Second),
		},
		Tools: ToolsConfig{
			HTTPTimeout:   Duration(30 * time.Second),
			FileStatsRoot: ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем окружение, затем файл.
//
// Пустой path означает "только окружение". Файл проходит через os.ExpandEnv,
// формат определяется по расширению (.yaml, .yml, .toml, .json).
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.ApplyEnv(os.Getenv)

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at: %s", path)
		}

		rawBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
		content := os.ExpandEnv(string(rawBytes))

		if err := decode(path, []byte(content), cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse toml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse json: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

// Save записывает конфигурацию в файл; формат выбирается по расширению.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".toml":
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate проверяет диапазоны значений.
func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.Reflector.Temperature < 0 || c.Reflector.Temperature > 2 {
		return fmt.Errorf("reflector.temperature must be in [0, 2], got %v", c.Reflector.Temperature)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be >= 1, got %d", c.Agent.MaxIterations)
	}
	switch c.Agent.Mode {
	case ModeText, ModeStructured, ModeAuto:
	default:
		return fmt.Errorf("agent.mode must be one of text, structured, auto; got %q", c.Agent.Mode)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.MaxDelay < c.Retry.MinDelay {
		return fmt.Errorf("retry.max_delay (%s) is less than retry.min_delay (%s)", c.Retry.MaxDelay, c.Retry.MinDelay)
	}
	if c.Retry.RequestsPerMinute < 0 {
		return fmt.Errorf("retry.requests_per_minute must be >= 0")
	}
	return nil
}

// RequireAPIKey возвращает ErrMissingAPIKey, если ключ не задан.
// Load ключ не требует: часть команд (tools-test) работает без модели.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}
