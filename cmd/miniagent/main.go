// miniagent - консольный агент с инструментами.
//
// Использование:
//
//	miniagent "What is 15 * 23?"            # один запрос
//	miniagent                               # интерактивный режим (история, Ctrl+C отменяет запрос)
//	miniagent -mode structured -reflect "..."
//	miniagent -save-config config.yaml      # сохранить итоговую конфигурацию
//
// Конфигурация: -config, затем MINIAGENT_CONFIG, затем config.{yaml,yml,toml,json}
// в текущей директории или рядом с бинарником, затем только окружение
// (LLM_API_KEY, LLM_API_BASE, LLM_MODEL, ...).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/config"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

type options struct {
	configPath    string
	mode          string
	maxIterations int
	reflect       bool
	tools         string
	traceDir      string
	historyFile   string
	saveConfig    string
	plain         bool
	verbose       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file (yaml, toml or json)")
	flag.StringVar(&opts.mode, "mode", "", "tool-call mode: text, structured or auto")
	flag.IntVar(&opts.maxIterations, "max-iterations", 0, "iteration budget per query")
	flag.BoolVar(&opts.reflect, "reflect", false, "enable answer reflection")
	flag.StringVar(&opts.tools, "tools", "", "comma-separated built-in tools to load (default: all configured)")
	flag.StringVar(&opts.traceDir, "trace-dir", "", "write per-run JSON traces to this directory")
	flag.StringVar(&opts.historyFile, "history", defaultHistoryFile(), "REPL history file")
	flag.StringVar(&opts.saveConfig, "save-config", "", "write the effective config to this path and exit")
	flag.BoolVar(&opts.plain, "plain", false, "print answers without markdown rendering")
	flag.BoolVar(&opts.verbose, "verbose", false, "log to stderr at debug level")
	flag.Parse()

	if err := run(opts, strings.TrimSpace(strings.Join(flag.Args(), " "))); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, query string) error {
	cfg, cfgPath, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: opts.configPath})
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)

	if opts.saveConfig != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg, opts.saveConfig); err != nil {
			return err
		}
		fmt.Printf("Config saved to %s\n", opts.saveConfig)
		return nil
	}

	out := newPrinter(os.Stdout, os.Stderr, opts.plain)

	agentOpts := []agent.Option{agent.WithEmitter(out.Emitter())}
	if opts.traceDir != "" {
		agentOpts = append(agentOpts, agent.WithTraceDir(opts.traceDir))
	}

	c, err := app.Build(cfg, cfgPath, opts.verbose, agentOpts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if query != "" {
		ctx, shutdown := utils.SetupGracefulShutdownWithContext()
		defer shutdown()
		return ask(ctx, c.Agent, out, query)
	}

	return newREPL(c, out, opts.historyFile).Run()
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.mode != "" {
		cfg.Agent.Mode = opts.mode
	}
	if opts.maxIterations > 0 {
		cfg.Agent.MaxIterations = opts.maxIterations
	}
	if opts.reflect {
		cfg.Reflector.Enabled = true
	}
	if opts.tools != "" {
		var names []string
		for _, name := range strings.Split(opts.tools, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		cfg.Agent.DefaultTools = names
	}
}

// ask выполняет один запрос и печатает ответ.
func ask(ctx context.Context, a *agent.Agent, out *printer, query string) error {
	outcome, err := a.Run(ctx, query)
	if err != nil {
		return err
	}
	out.Answer(outcome)
	return nil
}
