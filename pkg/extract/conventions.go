package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// Convention - одна текстовая форма записи вызова инструмента.
//
// Pattern совпадает с префиксом вызова до открывающей "{" включительно;
// группа 1 - имя инструмента. JSON аргументов читается декодером начиная
// с этой скобки, поэтому вложенные объекты разбираются целиком.
type Convention struct {
	Name    string
	Pattern *regexp.Regexp
}

// Conventions - распознаваемые формы в порядке приоритета.
//
// Порядок важен: побеждает первая конвенция, которая совпала и чей JSON
// разобрался. Если JSON не разобрался, пробуется следующая конвенция.
var Conventions = []Convention{
	{Name: "standard", Pattern: regexp.MustCompile(`TOOL:\s*(\w+)\s*ARGS:\s*\{`)},
	{Name: "typo", Pattern: regexp.MustCompile(`TOL:\s*(\w+)\s*ARGS:\s*\{`)},
	{Name: "chinese", Pattern: regexp.MustCompile(`使用工具:\s*(\w+)\s*参数:\s*\{`)},
	{Name: "use_tool", Pattern: regexp.MustCompile(`USE TOOL:\s*(\w+)\s*WITH ARGS:\s*\{`)},
	{Name: "spaced", Pattern: regexp.MustCompile(`T\s*O\s*O\s*L\s*:\s*(\w+)\s*A\s*R\s*G\s*S\s*:\s*\{`)},
	{Name: "chinese_alt", Pattern: regexp.MustCompile(`工具名称:\s*(\w+)\s*工具参数:\s*\{`)},
	{Name: "capitalized", Pattern: regexp.MustCompile(`Tool:\s*(\w+)\s*Args:\s*\{`)},
	{Name: "arguments", Pattern: regexp.MustCompile(`Tool:\s*(\w+)\s*Arguments:\s*\{`)},
}

// FreeTextCall - вызов, найденный в тексте ответа.
type FreeTextCall struct {
	Name       string
	Args       map[string]any
	Convention string
}

// ParseFreeText ищет вызов инструмента в свободном тексте.
//
// Возвращает ok=false, если ни одна конвенция не дала имя + валидный JSON-объект.
// Конвенция проверяется по первому вхождению в тексте.
func ParseFreeText(text string) (FreeTextCall, bool) {
	for _, conv := range Conventions {
		loc := conv.Pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}

		name := text[loc[2]:loc[3]]
		brace := loc[1] - 1

		args, err := decodeObject(text[brace:])
		if err != nil {
			utils.Warn("Failed to parse tool arguments",
				"convention", conv.Name,
				"tool", name,
				"args", utils.TruncateContent(text[brace:], 200),
				"error", err)
			continue
		}

		return FreeTextCall{Name: name, Args: args, Convention: conv.Name}, true
	}

	return FreeTextCall{}, false
}

// decodeObject читает первый JSON-объект из s (остаток строки игнорируется).
// Невалидный JSON не исправляется: конвенция просто не срабатывает.
func decodeObject(s string) (map[string]any, error) {
	var args map[string]any
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// envelope - ответ целиком из JSON {"tool": ..., "parameters": {...}}.
type envelope struct {
	Tool       *string         `json:"tool"`
	Parameters json.RawMessage `json:"parameters"`
}

// ParseEnvelope распознаёт ответ, который целиком является JSON-вызовом
// (допускается обёртка ```json).
func ParseEnvelope(text string) (FreeTextCall, bool) {
	body := utils.CleanJsonBlock(text)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return FreeTextCall{}, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return FreeTextCall{}, false
	}
	if env.Tool == nil || *env.Tool == "" || env.Parameters == nil {
		return FreeTextCall{}, false
	}

	args := map[string]any{}
	if err := json.Unmarshal(env.Parameters, &args); err != nil || args == nil {
		utils.Warn("Tool call parameters are not an object, using empty arguments",
			"tool", *env.Tool,
			"parameters", utils.TruncateContent(string(env.Parameters), 200))
		args = map[string]any{}
	}

	return FreeTextCall{Name: *env.Tool, Args: args, Convention: "json_envelope"}, true
}
