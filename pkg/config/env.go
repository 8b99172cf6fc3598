package config

import (
	"strings"
)

// Цепочки переменных окружения: берётся первая непустая.
var (
	apiKeyEnv = []string{
		"LLM_API_KEY",
		"OPENAI_API_KEY",
		"DEEPSEEK_API_KEY",
		"ANTHROPIC_API_KEY",
		"AZURE_OPENAI_API_KEY",
	}
	baseURLEnv = []string{
		"LLM_API_BASE",
		"OPENAI_API_BASE",
		"DEEPSEEK_API_BASE",
		"ANTHROPIC_API_BASE",
		"AZURE_OPENAI_ENDPOINT",
	}
	organizationEnv = []string{
		"LLM_ORGANIZATION",
		"OPENAI_ORGANIZATION",
	}
)

func firstEnv(getenv func(string) string, names []string) string {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ApplyEnv заполняет LLM-настройки из окружения.
//
// Если LLM_MODEL не задан, модель выбирается по base URL:
// deepseek → deepseek-chat, anthropic → claude-3-sonnet-20240229,
// azure → AZURE_OPENAI_DEPLOYMENT_NAME.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := firstEnv(getenv, apiKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := firstEnv(getenv, baseURLEnv); v != "" {
		c.LLM.BaseURL = v
	}
	if v := firstEnv(getenv, organizationEnv); v != "" {
		c.LLM.Organization = v
	}
	if v := getenv("SERPAPI_KEY"); v != "" {
		c.Tools.SerpAPIKey = v
	}

	envModel := getenv("LLM_MODEL")
	if envModel != "" {
		c.LLM.Model = envModel
		return
	}

	base := strings.ToLower(c.LLM.BaseURL)
	switch {
	case strings.Contains(base, "deepseek"):
		c.LLM.Model = "deepseek-chat"
		c.LLM.Provider = "deepseek"
	case strings.Contains(base, "anthropic"):
		c.LLM.Model = "claude-3-sonnet-20240229"
		c.LLM.Provider = "anthropic"
	case strings.Contains(base, "azure"):
		c.LLM.Provider = "azure"
		if deployment := getenv("AZURE_OPENAI_DEPLOYMENT_NAME"); deployment != "" {
			c.LLM.Model = deployment
		}
	}
}

// applyDerivedDefaults дополняет значения, зависящие от других полей.
func (c *Config) applyDerivedDefaults() {
	if c.LLM.BaseURL == "" && strings.HasPrefix(strings.ToLower(c.LLM.Model), "deepseek") {
		c.LLM.BaseURL = DeepSeekBaseURL
		c.LLM.Provider = "deepseek"
	}
	if c.Agent.Mode == "" {
		c.Agent.Mode = ModeText
	}
	if c.Tools.FileStatsRoot == "" {
		c.Tools.FileStatsRoot = "."
	}
}
