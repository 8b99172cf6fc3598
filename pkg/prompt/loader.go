// Загрузка и Рендер - чтение файла и text/template.

package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// ErrNotFound - файла промпта нет.
var ErrNotFound = errors.New("prompt file not found")

// Load загружает и парсит YAML файл промпта.
// Все шаблоны сообщений проверяются сразу (fail-fast).
func Load(path string) (*PromptFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read error: %w", err)
	}

	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("yaml parse error in %s: %w", path, err)
	}
	if len(pf.Messages) == 0 {
		return nil, fmt.Errorf("prompt %s has no messages", path)
	}

	for i, msg := range pf.Messages {
		if _, err := template.New("msg").Parse(msg.Content); err != nil {
			return nil, fmt.Errorf("template parse error in %s message #%d (%s): %w", path, i, msg.Role, err)
		}
	}

	return &pf, nil
}

// RenderMessages принимает данные (struct или map) и возвращает готовые сообщения
// где все {{.Field}} заменены на значения.
func (pf *PromptFile) RenderMessages(data any) ([]Message, error) {
	rendered := make([]Message, len(pf.Messages))

	for i, msg := range pf.Messages {
		content, err := Render(msg.Content, data)
		if err != nil {
			return nil, fmt.Errorf("message #%d (%s): %w", i, msg.Role, err)
		}
		rendered[i] = Message{Role: msg.Role, Content: content}
	}

	return rendered, nil
}

// Render выполняет один шаблон text/template.
func Render(text string, data any) (string, error) {
	tmpl, err := template.New("msg").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execute error: %w", err)
	}
	return buf.String(), nil
}
