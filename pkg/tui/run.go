package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
)

// Run запускает чат для агента (блокирующий вызов).
//
// emitter должен быть подключён к агенту через agent.WithEmitter:
//
//	emitter := events.NewChanEmitter(100)
//	a, _ := agent.NewFromConfig(cfg, agent.WithEmitter(emitter))
//	err := tui.Run(ctx, a, emitter, tui.Config{ModelName: a.Model()})
func Run(ctx context.Context, a *agent.Agent, emitter *events.ChanEmitter, cfg Config) error {
	if a == nil {
		return fmt.Errorf("agent is nil")
	}

	var sub events.Subscriber
	if emitter != nil {
		sub = emitter.Subscribe()
		defer emitter.Close()
	}

	model := NewModel(ctx, a.Run, sub, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
