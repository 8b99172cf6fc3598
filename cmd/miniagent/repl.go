package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".miniagent_history")
	}
	return filepath.Join(home, ".miniagent_history")
}

// repl - интерактивный режим с историей ввода (liner).
//
// Ctrl+C во время запроса отменяет только его; Ctrl+C или Ctrl+D
// в приглашении завершает сессию.
type repl struct {
	c           *app.Components
	out         *printer
	line        *liner.State
	historyFile string

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newREPL(c *app.Components, out *printer, historyFile string) *repl {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &repl{c: c, out: out, line: line, historyFile: historyFile}
	r.loadHistory()
	return r
}

func (r *repl) loadHistory() {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		defer f.Close()
		if _, err := r.line.ReadHistory(f); err != nil {
			utils.Warn("Failed to read history", "file", r.historyFile, "error", err)
		}
	}
}

func (r *repl) saveHistory() {
	if r.historyFile == "" {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		utils.Warn("Failed to save history", "file", r.historyFile, "error", err)
		return
	}
	defer f.Close()
	if _, err := r.line.WriteHistory(f); err != nil {
		utils.Warn("Failed to write history", "file", r.historyFile, "error", err)
	}
}

// Run крутит цикл чтения запросов до выхода.
func (r *repl) Run() error {
	defer func() {
		r.saveHistory()
		r.line.Close()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			r.mu.Lock()
			if r.cancel != nil {
				r.cancel()
				r.cancel = nil
				fmt.Fprintln(os.Stderr, warnStyle.Render("[Cancelled]"))
			}
			r.mu.Unlock()
		}
	}()

	fmt.Printf("MiniAgent (%s, %s mode). Tools: %s\n",
		r.c.Agent.Model(), r.c.Agent.Mode(), strings.Join(r.c.Agent.AvailableTools(), ", "))
	fmt.Println("Type /help for commands, Ctrl+D to exit.")

	for {
		input, err := r.line.Prompt("miniagent> ")
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) или io.EOF (Ctrl+D)
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !r.command(input) {
				return nil
			}
			continue
		}

		r.ask(input)
	}
}

func (r *repl) ask(query string) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		cancel()
	}()

	if err := ask(ctx, r.c.Agent, r.out, query); err != nil {
		r.out.Error(err)
	}
}

// command обрабатывает slash-команду; false означает выход.
func (r *repl) command(input string) bool {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		return false
	case "/tools":
		for _, d := range r.c.Agent.Registry().Describe() {
			fmt.Printf("  %s - %s\n", promptStyle.Render(d.Name), d.Description)
		}
	case "/config":
		fmt.Printf("  config: %s\n  model: %s\n  mode: %s\n  max iterations: %d\n",
			orNone(r.c.ConfigPath), r.c.Agent.Model(), r.c.Agent.Mode(), r.c.Agent.MaxIterations())
	case "/help":
		fmt.Println("  /tools   list loaded tools")
		fmt.Println("  /config  show effective settings")
		fmt.Println("  /exit    quit")
	default:
		fmt.Printf("Unknown command %s, try /help\n", input)
	}
	return true
}

func orNone(s string) string {
	if s == "" {
		return "(environment only)"
	}
	return s
}
