package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

const wrapWidth = 80

var (
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// printer печатает прогресс агента в stderr и ответы в stdout.
type printer struct {
	mu       sync.Mutex
	out      io.Writer
	progress io.Writer
	renderer *glamour.TermRenderer
	tty      bool
}

func newPrinter(out, progress io.Writer, plain bool) *printer {
	p := &printer{out: out, progress: progress}

	if f, ok := out.(*os.File); ok {
		p.tty = term.IsTerminal(int(f.Fd()))
	}
	if p.tty && !plain {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			utils.Warn("Markdown renderer unavailable", "error", err)
		} else {
			p.renderer = r
		}
	}
	return p
}

// Emitter возвращает синхронный events.Emitter для агента.
func (p *printer) Emitter() events.Emitter {
	return events.EmitterFunc(func(_ context.Context, ev events.Event) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if line := formatEvent(ev); line != "" {
			fmt.Fprintln(p.progress, line)
		}
	})
}

func formatEvent(ev events.Event) string {
	switch data := ev.Data.(type) {
	case events.ToolCallData:
		return toolStyle.Render(fmt.Sprintf("→ %s %s", data.ToolName, data.Args))
	case events.ToolResultData:
		if data.Error != "" {
			return errorStyle.Render(fmt.Sprintf("✗ %s: %s", data.ToolName, data.Error))
		}
		return resultStyle.Render(fmt.Sprintf("← %s: %s (%s)",
			data.ToolName, utils.TruncateContent(data.Result, 120), data.Duration.Round(time.Millisecond)))
	case events.ReflectionData:
		if data.Changed {
			return resultStyle.Render("↻ answer refined by reflection")
		}
	case events.BudgetData:
		return warnStyle.Render(fmt.Sprintf("! iteration limit reached after %d steps", data.Iterations))
	}
	return ""
}

// Answer печатает финальный ответ: markdown через glamour в терминале,
// перенос строк через reflow без renderer'а, как есть в pipe.
func (p *printer) Answer(o agent.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if o.Degraded() {
		fmt.Fprintln(p.progress, warnStyle.Render("(incomplete answer: iteration limit reached)"))
	}

	fmt.Fprint(p.out, p.render(o.Answer))

	fmt.Fprintln(p.progress, resultStyle.Render(fmt.Sprintf("%d steps, %d model calls, %s",
		o.Iterations, o.ModelCalls, o.Duration.Round(time.Millisecond))))
}

func (p *printer) render(answer string) string {
	switch {
	case p.renderer != nil:
		if rendered, err := p.renderer.Render(answer); err == nil {
			return rendered
		}
		return wordwrap.String(answer, wrapWidth) + "\n"
	case p.tty:
		return wordwrap.String(answer, wrapWidth) + "\n"
	default:
		return answer + "\n"
	}
}

// Error печатает ошибку запроса.
func (p *printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.progress, errorStyle.Render("Error: "+err.Error()))
}
