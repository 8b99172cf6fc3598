// miniagent-tui - терминальный чат с агентом.
//
// Использование:
//
//	miniagent-tui [-config config.yaml] [-theme dark] [-timestamps]
//
// Лог пишется в файл (log.file или miniagent-<время>.log): stdout занят интерфейсом.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/events"
	"github.com/ZhuLinsen/MiniAgent/pkg/tui"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml, toml or json)")
	theme := flag.String("theme", "default", "color scheme: default, dark, light")
	timestamps := flag.Bool("timestamps", false, "show timestamps in the chat log")
	traceDir := flag.String("trace-dir", "", "write per-run JSON traces to this directory")
	flag.Parse()

	if err := run(*configPath, *theme, *timestamps, *traceDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, theme string, timestamps bool, traceDir string) error {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: configPath})
	if err != nil {
		return err
	}

	// Без файла лога весь вывод пропадал бы: TUI занимает экран.
	if err := utils.InitLogger(cfg.Log.File); err != nil {
		return err
	}

	emitter := events.NewChanEmitter(100)
	opts := []agent.Option{agent.WithEmitter(emitter)}
	if traceDir != "" {
		opts = append(opts, agent.WithTraceDir(traceDir))
	}

	c, err := app.Build(cfg, cfgPath, false, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, c.Agent, emitter, tui.Config{
		ModelName:     c.Agent.Model(),
		ColorScheme:   theme,
		ShowTimestamp: timestamps,
		MaxMessages:   1000,
	})
}
