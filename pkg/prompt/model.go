// Структуры данных - описывает формат YAML файла промпта.
package prompt

// PromptFile описывает структуру YAML-файла с промптом:
//
//	config:
//	  temperature: 0.3
//	messages:
//	  - role: system
//	    content: "You are ..."
//	  - role: user
//	    content: "Query: {{.Query}}"
type PromptFile struct {
	Config   PromptConfig `yaml:"config"`
	Messages []Message    `yaml:"messages"`
}

// PromptConfig - настройки модели для конкретного промпта.
// Нулевые значения означают "как в основной конфигурации".
type PromptConfig struct {
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// Message - одно сообщение в чате
type Message struct {
	Role    string `yaml:"role"`    // system, user, assistant
	Content string `yaml:"content"` // Шаблон с {{.Variables}}
}
