// Package std - встроенные инструменты агента.
//
// Каталог инструментов строится по имени через New; RegisterAll регистрирует
// все инструменты, для которых настроены зависимости (S3, SQLite, SerpAPI).
package std

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ZhuLinsen/MiniAgent/pkg/config"
	"github.com/ZhuLinsen/MiniAgent/pkg/s3storage"
	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
	"github.com/ZhuLinsen/MiniAgent/pkg/utils"
)

var (
	// ErrUnknownTool - в каталоге нет инструмента с таким именем.
	ErrUnknownTool = errors.New("unknown builtin tool")
	// ErrUnavailable - инструмент существует, но его зависимость не настроена.
	ErrUnavailable = errors.New("builtin tool is not configured")
)

// DefaultSerpAPIURL - endpoint поиска SerpAPI.
const DefaultSerpAPIURL = "https://serpapi.com/search"

// Deps - внешние зависимости встроенных инструментов.
type Deps struct {
	HTTPClient *http.Client

	SerpAPIKey string
	SerpAPIURL string

	// FileRoot - база для относительных путей file_stats.
	FileRoot string

	// SQLitePath - файл базы для sql_query (открывается только на чтение).
	SQLitePath string

	S3 s3storage.ClientInterface

	// CPUSampleInterval - окно замера загрузки CPU в system_load.
	CPUSampleInterval time.Duration

	Now func() time.Time
}

// DepsFromConfig собирает зависимости из конфигурации.
// S3 клиент создаётся только если секция s3 заполнена.
func DepsFromConfig(cfg *config.Config) (Deps, error) {
	deps := Deps{
		HTTPClient:        &http.Client{Timeout: cfg.Tools.HTTPTimeout.Std()},
		SerpAPIKey:        cfg.Tools.SerpAPIKey,
		FileRoot:          cfg.Tools.FileStatsRoot,
		SQLitePath:        cfg.Tools.SQLitePath,
		CPUSampleInterval: time.Second,
	}

	if cfg.S3.Enabled() {
		client, err := s3storage.New(cfg.S3)
		if err != nil {
			return Deps{}, err
		}
		deps.S3 = client
	}

	return deps, nil
}

func (d Deps) withDefaults() Deps {
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if d.SerpAPIURL == "" {
		d.SerpAPIURL = DefaultSerpAPIURL
	}
	if d.FileRoot == "" {
		d.FileRoot = "."
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

type builtin struct {
	name      string
	build     func(Deps) (tools.Tool, error)
	available func(Deps) bool
}

func always(Deps) bool { return true }

// catalog - порядок совпадает с порядком в system prompt.
var catalog = []builtin{
	{name: "calculator", build: func(Deps) (tools.Tool, error) { return NewCalculator() }, available: always},
	{name: "get_current_time", build: func(d Deps) (tools.Tool, error) { return NewCurrentTime(d.Now) }, available: always},
	{name: "system_info", build: func(Deps) (tools.Tool, error) { return NewSystemInfo() }, available: always},
	{name: "file_stats", build: func(d Deps) (tools.Tool, error) { return NewFileStats(d.FileRoot) }, available: always},
	{name: "web_search", build: func(d Deps) (tools.Tool, error) { return NewWebSearch(d.HTTPClient, d.SerpAPIURL, d.SerpAPIKey) },
		available: func(d Deps) bool { return d.SerpAPIKey != "" }},
	{name: "http_request", build: func(d Deps) (tools.Tool, error) { return NewHTTPRequest(d.HTTPClient) }, available: always},
	{name: "disk_usage", build: func(Deps) (tools.Tool, error) { return NewDiskUsage() }, available: always},
	{name: "process_list", build: func(Deps) (tools.Tool, error) { return NewProcessList() }, available: always},
	{name: "system_load", build: func(d Deps) (tools.Tool, error) { return NewSystemLoad(d.CPUSampleInterval) }, available: always},
	{name: "list_s3_files", build: func(d Deps) (tools.Tool, error) { return NewS3ListTool(d.S3), nil },
		available: func(d Deps) bool { return d.S3 != nil }},
	{name: "read_s3_file", build: func(d Deps) (tools.Tool, error) { return NewS3ReadTool(d.S3), nil },
		available: func(d Deps) bool { return d.S3 != nil }},
	{name: "sql_query", build: func(d Deps) (tools.Tool, error) { return NewSQLQuery(d.SQLitePath) },
		available: func(d Deps) bool { return d.SQLitePath != "" }},
}

// Names возвращает имена всех встроенных инструментов.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, b := range catalog {
		names = append(names, b.name)
	}
	return names
}

// New создаёт встроенный инструмент по имени.
func New(name string, deps Deps) (tools.Tool, error) {
	deps = deps.withDefaults()
	for _, b := range catalog {
		if b.name != name {
			continue
		}
		if !b.available(deps) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
		}
		return b.build(deps)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// Register регистрирует перечисленные встроенные инструменты.
func Register(reg *tools.Registry, deps Deps, names ...string) error {
	for _, name := range names {
		tool, err := New(name, deps)
		if err != nil {
			return err
		}
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAll регистрирует все доступные встроенные инструменты и
// возвращает их имена. Ненастроенные инструменты пропускаются.
func RegisterAll(reg *tools.Registry, deps Deps) ([]string, error) {
	deps = deps.withDefaults()

	var registered []string
	for _, b := range catalog {
		if !b.available(deps) {
			utils.Debug("Builtin tool skipped: not configured", "tool", b.name)
			continue
		}
		tool, err := b.build(deps)
		if err != nil {
			return registered, fmt.Errorf("build %s: %w", b.name, err)
		}
		if err := reg.Register(tool); err != nil {
			return registered, err
		}
		registered = append(registered, b.name)
	}
	return registered, nil
}
