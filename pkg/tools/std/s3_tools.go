// Инструменты для работы с S3:
//
// list_s3_files: аналог ls. Позволяет агенту "осмотреться" в бакете.
// read_s3_file: аналог cat. Возвращает текстовое содержимое объекта.
package std

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/ZhuLinsen/MiniAgent/pkg/s3storage"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

const (
	// maxListedFiles - сколько ключей максимум отдаём модели за один вызов.
	maxListedFiles = 200
	// maxS3TextSize - лимит текста, возвращаемого read_s3_file.
	maxS3TextSize = 3000
	// maxS3Download - больше этого объект не скачиваем.
	maxS3Download = 10 << 20
)

// --- Tool: list_s3_files ---

// S3ListTool позволяет агенту узнать, какие файлы есть по указанному префиксу.
type S3ListTool struct {
	client s3storage.ClientInterface
}

func NewS3ListTool(c s3storage.ClientInterface) *S3ListTool {
	return &S3ListTool{client: c}
}

func (t *S3ListTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "list_s3_files",
		Description: "List files in the S3 bucket under a path prefix. Use it to find documents before reading them.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"prefix": map[string]any{
					"type":        "string",
					"description": "Folder prefix (e.g. 'reports/') or empty for the bucket root.",
				},
			},
			"required": []string{}, // prefix опционален, но поле нужно для совместимости с API
		},
	}
}

func (t *S3ListTool) Execute(ctx context.Context, argsJSON string) (any, error) {
	var args struct {
		Prefix string `json:"prefix"`
	}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("%w: %v", tools.ErrInvalidArguments, err)
		}
	}

	files, err := t.client.ListFiles(ctx, args.Prefix, maxListedFiles+1)
	if err != nil {
		return nil, fmt.Errorf("s3 list error: %w", err)
	}
	if len(files) == 0 {
		return fmt.Sprintf("No files found under prefix '%s'", args.Prefix), nil
	}

	// Отдаем только имена и размеры, без метаданных
	type simpleFile struct {
		Key  string `json:"key"`
		Size string `json:"size"` // "10 kB" читаемее для LLM, чем байты
	}

	truncated := len(files) > maxListedFiles
	if truncated {
		files = files[:maxListedFiles]
	}

	list := make([]simpleFile, 0, len(files))
	for _, f := range files {
		list = append(list, simpleFile{Key: f.Key, Size: humanize.IBytes(uint64(f.Size))})
	}

	return map[string]any{
		"files":     list,
		"count":     len(list),
		"truncated": truncated,
	}, nil
}

// --- Tool: read_s3_file ---

// S3ReadTool читает текстовые объекты (JSON, TXT, MD, CSV). Бинарные файлы отклоняются.
type S3ReadTool struct {
	client s3storage.ClientInterface
}

func NewS3ReadTool(c s3storage.ClientInterface) *S3ReadTool {
	return &S3ReadTool{client: c}
}

func (t *S3ReadTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "read_s3_file",
		Description: "Read the content of a text file from S3 (JSON, TXT, MD, CSV). Not for images or archives.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Full object key as returned by list_s3_files.",
				},
			},
			"required": []string{"key"},
		},
	}
}

func (t *S3ReadTool) Execute(ctx context.Context, argsJSON string) (any, error) {
	var args struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrInvalidArguments, err)
	}
	if args.Key == "" {
		return nil, fmt.Errorf("%w: key is required", tools.ErrInvalidArguments)
	}

	// Простая защита от дурака (чтобы не качать гигабайтные видео)
	ext := strings.ToLower(filepath.Ext(args.Key))
	if isBinaryExt(ext) {
		return nil, fmt.Errorf("file type '%s' is binary and cannot be read as text", ext)
	}

	content, err := t.client.DownloadFile(ctx, args.Key, maxS3Download)
	if err != nil {
		if errors.Is(err, s3storage.ErrObjectTooLarge) {
			return nil, fmt.Errorf("file '%s' is too large to read", args.Key)
		}
		return nil, fmt.Errorf("s3 download error: %w", err)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("file '%s' is not valid UTF-8 text", args.Key)
	}

	text := string(content)
	if len(text) <= maxS3TextSize {
		return text, nil
	}

	// Ограничиваем длину, чтобы не забить контекст LLM
	warning := "\n\n...[TRUNCATED - file too large for context]"
	if ext == ".json" {
		warning = "\n\n...[TRUNCATED - JSON file too large. Request specific fields you need.]"
	}
	cut := maxS3TextSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + warning, nil
}

func isBinaryExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".zip", ".gz", ".tar", ".pdf", ".mp4", ".mov", ".exe", ".bin":
		return true
	}
	return false
}
