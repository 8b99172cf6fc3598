// tools-test - прогон встроенных инструментов без модели.
//
// Использование:
//
//	go run ./cmd/tools-test [-config config.yaml] [-skip-network]
//
// Каждый вызов идёт через tools.Invoker, как в цикле агента: с валидацией
// аргументов по схеме и timeout'ом.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools/std"
)

type check struct {
	section string
	name    string
	args    map[string]any
	network bool
}

var checks = []check{
	{section: "Basic Tools", name: "calculator", args: map[string]any{"expression": "123 * 456 + 789"}},
	{section: "Basic Tools", name: "get_current_time"},
	{section: "Basic Tools", name: "system_info"},
	{section: "Basic Tools", name: "file_stats", args: map[string]any{"directory": ".", "pattern": "*.go"}},
	{section: "Network Tools", name: "http_request", args: map[string]any{"url": "https://api.github.com/zen"}, network: true},
	{section: "Network Tools", name: "web_search", args: map[string]any{"query": "Go programming", "num_results": 3}, network: true},
	{section: "System Tools", name: "disk_usage", args: map[string]any{"path": "/"}},
	{section: "System Tools", name: "process_list", args: map[string]any{"limit": 5}},
	{section: "System Tools", name: "system_load"},
	{section: "Storage Tools", name: "list_s3_files", args: map[string]any{"prefix": ""}, network: true},
	{section: "Storage Tools", name: "sql_query", args: map[string]any{"query": "SELECT name FROM sqlite_master WHERE type = 'table'"}},
}

func main() {
	configPath := flag.String("config", "", "path to config file (yaml, toml or json)")
	skipNetwork := flag.Bool("skip-network", false, "skip tools that need network access")
	verbose := flag.Bool("verbose", false, "log to stderr at debug level")
	flag.Parse()

	failed, err := run(*configPath, *skipNetwork, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(configPath string, skipNetwork, verbose bool) (int, error) {
	cfg, _, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: configPath})
	if err != nil {
		return 0, err
	}
	if err := app.SetupLogging(cfg.Log, verbose); err != nil {
		return 0, err
	}

	deps, err := std.DepsFromConfig(cfg)
	if err != nil {
		return 0, err
	}

	reg := tools.NewRegistry()
	loaded, err := std.RegisterAll(reg, deps)
	if err != nil {
		return 0, err
	}
	fmt.Printf("Loaded %d tools: %s\n", len(loaded), strings.Join(loaded, ", "))

	inv := tools.NewInvoker(reg, tools.WithTimeout(30*time.Second))
	ctx := context.Background()

	failed := 0
	section := ""
	for _, c := range checks {
		if c.section != section {
			section = c.section
			fmt.Printf("\n=== Testing %s ===\n", section)
		}

		if _, ok := reg.Lookup(c.name); !ok {
			fmt.Printf("- %s: skipped (not configured)\n", c.name)
			continue
		}
		if c.network && skipNetwork {
			fmt.Printf("- %s: skipped (network)\n", c.name)
			continue
		}

		res := inv.Invoke(ctx, tools.Request{Name: c.name, Args: c.args})
		status := "ok"
		if !res.OK() {
			status = "FAILED"
			failed++
		}
		fmt.Printf("- %s [%s, %s]: %s\n", c.name, status, res.Duration.Round(time.Millisecond), preview(res.Text(), 300))
	}

	fmt.Printf("\n%d checks failed\n", failed)
	return failed, nil
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
