package tui

import "github.com/ZhuLinsen/MiniAgent/pkg/agent"

// runDoneMsg - запрос к агенту завершился.
type runDoneMsg struct {
	outcome agent.Outcome
	err     error
}
