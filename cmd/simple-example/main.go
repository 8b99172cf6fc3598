// simple-example - минимальный пример: агент с тремя инструментами и рефлексией.
//
// Использование:
//
//	LLM_API_KEY=sk-... go run ./cmd/simple-example
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

const userQuery = "What is the current time? Please provide a system information overview."

func main() {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Agent.SystemPrompt = "You are a helpful assistant that can use tools to answer questions. " +
		"When you need information, use the appropriate tools."
	cfg.Agent.DefaultTools = []string{"calculator", "get_current_time", "system_info"}
	cfg.Reflector.Enabled = true

	c, err := app.Build(cfg, cfgPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	utils.Info("Loaded tools", "tools", c.Agent.AvailableTools())

	sep := strings.Repeat("-", 50)
	fmt.Println(sep)
	fmt.Println("MiniAgent Example - Using Tools")
	fmt.Println(sep)
	fmt.Println("User query:", userQuery)
	fmt.Println(sep)

	base, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()
	ctx, cancel := context.WithTimeout(base, 2*time.Minute)
	defer cancel()

	outcome, err := c.Agent.Run(ctx, userQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running query: %v\n", err)
		os.Exit(1)
	}

	utils.Info("Agent response", "answer", utils.TruncateContent(outcome.Answer, 200))

	fmt.Println("Agent response:")
	fmt.Println(outcome.Answer)
	fmt.Println(sep)
	fmt.Printf("Iterations: %d, model calls: %d, reflected: %v, took %s\n",
		outcome.Iterations, outcome.ModelCalls, outcome.Reflected, outcome.Duration.Round(time.Millisecond))
}
