package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZhuLinsen/MiniAgent/pkg/agent"
	"github.com/ZhuLinsen/MiniAgent/pkg/config"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

// Components содержит всё, что нужно утилите для выполнения запросов.
type Components struct {
	Config     *config.Config
	ConfigPath string // "" если конфиг взят только из окружения
	Agent      *agent.Agent
}

// InitializeConfig находит и загружает конфигурацию.
//
// Относительные пути внутри файла (prompts.dir, tools.sqlite_path,
// tools.file_stats_root, log.file) разрешаются от директории конфига.
func InitializeConfig(finder ConfigPathFinder) (*config.Config, string, error) {
	cfgPath := finder.FindConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if cfgPath == "" {
			return nil, "", fmt.Errorf("failed to load config from environment: %w", err)
		}
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}

	if cfgPath != "" {
		cfgDir := filepath.Dir(cfgPath)
		cfg.Prompts.Dir = relativeTo(cfgDir, cfg.Prompts.Dir)
		cfg.Tools.SQLitePath = relativeTo(cfgDir, cfg.Tools.SQLitePath)
		cfg.Tools.FileStatsRoot = relativeTo(cfgDir, cfg.Tools.FileStatsRoot)
		cfg.Log.File = relativeTo(cfgDir, cfg.Log.File)
	}

	return cfg, cfgPath, nil
}

func relativeTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// SetupLogging включает файловый лог согласно cfg.Log.
//
// verbose дублирует вывод в stderr на уровне debug вместо файла.
// Без log.file и verbose логгер остаётся выключенным.
func SetupLogging(cfg config.LogConfig, verbose bool) error {
	if verbose {
		utils.SetOutput(os.Stderr)
		utils.SetLevel(utils.LevelDebug)
		return nil
	}

	utils.SetLevel(utils.ParseLevel(cfg.Level))
	if cfg.File == "" {
		return nil
	}
	return utils.InitLogger(cfg.File)
}

// Initialize выполняет полную инициализацию: конфиг, лог, агент.
func Initialize(finder ConfigPathFinder, verbose bool, opts ...agent.Option) (*Components, error) {
	cfg, cfgPath, err := InitializeConfig(finder)
	if err != nil {
		return nil, err
	}
	return Build(cfg, cfgPath, verbose, opts...)
}

// Build создаёт компоненты из уже загруженной конфигурации.
//
// Утилиты, которые переопределяют поля конфига флагами, вызывают
// InitializeConfig, меняют cfg и затем Build.
func Build(cfg *config.Config, cfgPath string, verbose bool, opts ...agent.Option) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := SetupLogging(cfg.Log, verbose); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	utils.Info("Config loaded",
		"path", cfgPath,
		"model", cfg.LLM.Model,
		"base_url", cfg.LLM.BaseURL,
		"api_key", utils.MaskSecret(cfg.LLM.APIKey),
		"mode", cfg.Agent.Mode)

	a, err := agent.NewFromConfig(cfg, opts...)
	if err != nil {
		utils.Close()
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return &Components{
		Config:     cfg,
		ConfigPath: cfgPath,
		Agent:      a,
	}, nil
}

// Close освобождает ресурсы (закрывает лог-файл).
func (c *Components) Close() {
	utils.Close()
}
