// custom-tools-example - регистрация собственных инструментов рядом со встроенными.
//
// Использование:
//
//	LLM_API_KEY=sk-... go run ./cmd/custom-tools-example
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

const query = `
Let me test the custom tools:
1. Calculate the 10th Fibonacci number
2. Analyze this text: "The quick brown fox jumps over the lazy dog. This is a pangram that contains every letter of the alphabet."
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{})
	if err != nil {
		return err
	}
	cfg.Agent.DefaultTools = []string{"calculator", "get_current_time"}

	c, err := app.Build(cfg, cfgPath, false)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, build := range []func() (tools.Tool, error){newFibonacciTool, newTextAnalyzerTool} {
		tool, err := build()
		if err != nil {
			return err
		}
		if err := c.Agent.AddTool(tool); err != nil {
			return err
		}
	}
	utils.Info("Loaded tools", "tools", c.Agent.AvailableTools())

	fmt.Println("\nUser Query:")
	fmt.Println(strings.TrimSpace(query))
	fmt.Println(strings.Repeat("-", 50))

	base, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()
	ctx, cancel := context.WithTimeout(base, 2*time.Minute)
	defer cancel()

	outcome, err := c.Agent.Run(ctx, query)
	if err != nil {
		return fmt.Errorf("agent run: %w", err)
	}

	fmt.Println("\nAgent Response:")
	fmt.Println(outcome.Answer)
	return nil
}
