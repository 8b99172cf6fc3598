package tui

import "github.com/charmbracelet/lipgloss"

// ColorScheme определяет цвета элементов чата.
//
// Каждое поле - это lipgloss.Color (hex, ANSI или named color).
type ColorScheme struct {
	StatusBackground lipgloss.Color
	StatusForeground lipgloss.Color

	SystemMessage lipgloss.Color
	UserMessage   lipgloss.Color
	AIMessage     lipgloss.Color
	ErrorMessage  lipgloss.Color
	Warning       lipgloss.Color
	ToolCall      lipgloss.Color
	ToolResult    lipgloss.Color
}

// ColorSchemes - предустановленные схемы.
var ColorSchemes = map[string]ColorScheme{
	"default": {
		StatusBackground: lipgloss.Color("235"),
		StatusForeground: lipgloss.Color("252"),
		SystemMessage:    lipgloss.Color("242"),
		UserMessage:      lipgloss.Color("226"),
		AIMessage:        lipgloss.Color("86"),
		ErrorMessage:     lipgloss.Color("196"),
		Warning:          lipgloss.Color("214"),
		ToolCall:         lipgloss.Color("228"),
		ToolResult:       lipgloss.Color("154"),
	},
	"dark": {
		StatusBackground: lipgloss.Color("0"),
		StatusForeground: lipgloss.Color("15"),
		SystemMessage:    lipgloss.Color("8"),
		UserMessage:      lipgloss.Color("11"),
		AIMessage:        lipgloss.Color("14"),
		ErrorMessage:     lipgloss.Color("9"),
		Warning:          lipgloss.Color("3"),
		ToolCall:         lipgloss.Color("13"),
		ToolResult:       lipgloss.Color("10"),
	},
	"light": {
		StatusBackground: lipgloss.Color("255"),
		StatusForeground: lipgloss.Color("0"),
		SystemMessage:    lipgloss.Color("8"),
		UserMessage:      lipgloss.Color("130"),
		AIMessage:        lipgloss.Color("31"),
		ErrorMessage:     lipgloss.Color("1"),
		Warning:          lipgloss.Color("166"),
		ToolCall:         lipgloss.Color("90"),
		ToolResult:       lipgloss.Color("28"),
	},
}

// GetColorScheme возвращает цветовую схему по имени.
// Если схема не найдена, возвращает default.
func GetColorScheme(name string) ColorScheme {
	if scheme, ok := ColorSchemes[name]; ok {
		return scheme
	}
	return ColorSchemes["default"]
}

// styles - стили, собранные из ColorScheme.
type styles struct {
	status, system, user, ai, err, warn, toolCall, toolResult lipgloss.Style
}

func newStyles(c ColorScheme) styles {
	fg := func(color lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(color) }
	return styles{
		status:     lipgloss.NewStyle().Foreground(c.StatusForeground).Background(c.StatusBackground).Bold(true),
		system:     fg(c.SystemMessage),
		user:       fg(c.UserMessage).Bold(true),
		ai:         fg(c.AIMessage).Bold(true),
		err:        fg(c.ErrorMessage).Bold(true),
		warn:       fg(c.Warning),
		toolCall:   fg(c.ToolCall),
		toolResult: fg(c.ToolResult),
	}
}
