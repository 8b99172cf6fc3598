// Package utils предоставляет вспомогательные функции для обработки ответов LLM.
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TruncateContent обрезает текст до maxRunes символов и добавляет "...".
//
// Используется для логов и для ограничения размера результатов инструментов
// перед добавлением в историю. maxRunes <= 0 означает "без ограничения".
func TruncateContent(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)
	return string(runes[:maxRunes]) + "..."
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json|JSON|Json)?\\s*(.*?)```")

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// LLM часто возвращает JSON обёрнутым в markdown кодовые блоки:
//
//	```json
//	{"key": "value"}
//	```
//
// Если в тексте есть fenced блок - возвращается его содержимое,
// иначе текст без пробелов по краям.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	if m := fencedJSONRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}

	return s
}
