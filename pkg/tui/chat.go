// Package tui - терминальный чат с агентом на Bubble Tea.
//
// # Layout
//
//	┌─────────────────────────────────────────────────┐
//	│ MiniAgent | Model: gpt-4o | Thinking...         │ ← Status Bar
//	├─────────────────────────────────────────────────┤
//	│ [14:32:15] You: Calculate 2 + 2                 │
//	│ Tool: calculator {"expression":"2 + 2"}         │
//	│ Result: calculator -> 4 (1ms)                   │
//	│ [14:32:18] AI: 2 + 2 = 4                        │
//	├─────────────────────────────────────────────────┤
//	│ > user input here                               │ ← Input Area
//	└─────────────────────────────────────────────────┘
//
// Прогресс берётся из событий агента (events.Subscriber), финальный ответ
// из результата Run. Модель не знает, как агент устроен внутри.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// RunFunc выполняет один запрос (обычно (*agent.Agent).Run).
type RunFunc func(ctx context.Context, query string) (agent.Outcome, error)

// Config - настройки чата. Все поля опциональны.
type Config struct {
	Title         string
	ModelName     string
	InputPrompt   string
	ColorScheme   string
	ShowTimestamp bool

	// MaxMessages - сколько строк лога хранить (0 = без ограничения).
	MaxMessages int

	// MaxToolResultPreview - длина результата инструмента в логе.
	MaxToolResultPreview int
}

const (
	statusReady    = "Ready"
	statusThinking = "Thinking..."
)

// Model - Bubble Tea модель чата.
type Model struct {
	cfg    Config
	run    RunFunc
	sub    events.Subscriber
	ctx    context.Context
	cancel context.CancelFunc

	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	textarea textarea.Model
	styles   styles

	lines  []string
	busy   bool
	status string
	ready  bool
	now    func() time.Time
}

// NewModel создаёт модель чата.
func NewModel(ctx context.Context, run RunFunc, sub events.Subscriber, cfg Config) *Model {
	if cfg.Title == "" {
		cfg.Title = "MiniAgent"
	}
	if cfg.InputPrompt == "" {
		cfg.InputPrompt = "> "
	}
	if cfg.MaxToolResultPreview == 0 {
		cfg.MaxToolResultPreview = 120
	}

	ta := textarea.New()
	ta.Placeholder = "Ask something..."
	ta.Prompt = cfg.InputPrompt
	ta.CharLimit = 2000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	m := &Model{
		cfg:      cfg,
		run:      run,
		sub:      sub,
		ctx:      ctx,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		textarea: ta,
		styles:   newStyles(GetColorScheme(cfg.ColorScheme)),
		status:   statusReady,
		now:      time.Now,
	}
	m.appendLine(m.styles.system.Render("Agent ready. Type your query, Ctrl+C to quit."))
	return m
}

// Init реализует tea.Model интерфейс.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, WaitForEvent(m.sub))
}

// Update реализует tea.Model интерфейс.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case EventMsg:
		m.handleEvent(events.Event(msg))
		return m, WaitForEvent(m.sub)

	case subscriptionClosedMsg:
		return m, nil

	case runDoneMsg:
		m.handleDone(msg)
		return m, nil
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return tea.Quit, true

	case key.Matches(msg, m.keys.Cancel):
		if m.busy && m.cancel != nil {
			m.cancel()
			m.status = "Cancelling..."
		}
		return nil, true

	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return nil, true

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfPageUp()
		return nil, true

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfPageDown()
		return nil, true

	case key.Matches(msg, m.keys.ConfirmInput):
		return m.submit(), true
	}
	return nil, false
}

// submit запускает запрос в отдельной goroutine (через tea.Cmd).
func (m *Model) submit() tea.Cmd {
	query := strings.TrimSpace(m.textarea.Value())
	if query == "" || m.busy || m.run == nil {
		return nil
	}
	m.textarea.Reset()

	m.appendLine(m.stamp() + m.styles.user.Render("You: ") + query)
	m.busy = true
	m.status = statusThinking

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	run := m.run

	return func() tea.Msg {
		defer cancel()
		outcome, err := run(ctx, query)
		return runDoneMsg{outcome: outcome, err: err}
	}
}

func (m *Model) handleEvent(ev events.Event) {
	switch data := ev.Data.(type) {
	case events.ThinkingData:
		m.status = fmt.Sprintf("Thinking... (step %d)", data.Iteration)

	case events.ToolCallData:
		m.status = "Running " + data.ToolName
		m.appendLine(m.styles.toolCall.Render(fmt.Sprintf("Tool: %s %s", data.ToolName, data.Args)))

	case events.ToolResultData:
		line := fmt.Sprintf("Result: %s -> %s (%dms)",
			data.ToolName,
			utils.TruncateContent(data.Result, m.cfg.MaxToolResultPreview),
			data.Duration.Milliseconds())
		if data.Error != "" {
			m.appendLine(m.styles.err.Render(line))
		} else {
			m.appendLine(m.styles.toolResult.Render(line))
		}

	case events.ReflectionData:
		if data.Changed {
			m.appendLine(m.styles.system.Render("Answer refined by reflection"))
		}

	case events.BudgetData:
		m.appendLine(m.styles.warn.Render(fmt.Sprintf("Iteration limit reached after %d steps", data.Iterations)))
	}
}

func (m *Model) handleDone(msg runDoneMsg) {
	m.busy = false
	m.cancel = nil
	m.status = statusReady

	if msg.err != nil {
		m.appendLine(m.styles.err.Render("ERROR: " + msg.err.Error()))
		return
	}

	label := m.styles.ai.Render("AI: ")
	if msg.outcome.Degraded() {
		label = m.styles.warn.Render("AI (incomplete): ")
	}
	m.appendLine(m.stamp() + label + msg.outcome.Answer)
}

func (m *Model) resize(width, height int) {
	if width < 20 {
		width = 20
	}
	helpHeight := 1
	vpHeight := height - 1 - m.textarea.Height() - 1 - helpHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(width)
	m.help.Width = width
	m.ready = true
	setViewportLines(&m.viewport, m.lines)
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if m.cfg.MaxMessages > 0 && len(m.lines) > m.cfg.MaxMessages {
		m.lines = m.lines[len(m.lines)-m.cfg.MaxMessages:]
	}
	setViewportLines(&m.viewport, m.lines)
}

func (m *Model) stamp() string {
	if !m.cfg.ShowTimestamp {
		return ""
	}
	return fmt.Sprintf("[%s] ", m.now().Format("15:04:05"))
}

// View реализует tea.Model интерфейс.
func (m *Model) View() string {
	model := m.cfg.ModelName
	if model == "" {
		model = "N/A"
	}
	status := m.styles.status.Render(fmt.Sprintf(" %s | Model: %s | %s ", m.cfg.Title, model, m.status))

	return strings.Join([]string{
		status,
		m.viewport.View(),
		m.textarea.View(),
		m.help.View(m.keys),
	}, "\n")
}

// Lines возвращает строки лога (для тестов и сохранения).
func (m *Model) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Busy сообщает, выполняется ли запрос.
func (m *Model) Busy() bool { return m.busy }

var _ tea.Model = (*Model)(nil)
