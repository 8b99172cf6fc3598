// Package app собирает агента для командных утилит: поиск конфига,
// загрузка, логирование и создание agent.Agent.
//
// Все cmd/* программы проходят через Initialize, поэтому правила поиска
// config-файла и настройки лога одинаковы для CLI, TUI и примеров.
package app

import (
	"os"
	"path/filepath"
)

// ConfigFileNames - имена, которые ищутся при отсутствии флага -config.
var ConfigFileNames = []string{
	"config.yaml",
	"config.yml",
	"config.toml",
	"config.json",
}

// ConfigPathFinder определяет стратегию поиска конфигурации.
type ConfigPathFinder interface {
	// FindConfigPath возвращает путь к файлу или "" (только окружение).
	FindConfigPath() string
}

// DefaultConfigPathFinder ищет конфиг в таком порядке:
//  1. флаг -config (относительный путь разрешается от текущей директории)
//  2. переменная MINIAGENT_CONFIG
//  3. ConfigFileNames в текущей директории
//  4. ConfigFileNames рядом с бинарником
//
// Если ничего не найдено, возвращается "" и настройки берутся из окружения.
type DefaultConfigPathFinder struct {
	ConfigFlag string

	// Dirs переопределяет директории поиска (для тестов).
	Dirs []string
}

// FindConfigPath реализует ConfigPathFinder.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}
	if env := os.Getenv("MINIAGENT_CONFIG"); env != "" {
		return resolveAbsPath(env)
	}

	for _, dir := range f.searchDirs() {
		for _, name := range ConfigFileNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

func (f *DefaultConfigPathFinder) searchDirs() []string {
	if f.Dirs != nil {
		return f.Dirs
	}

	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if execPath, err := os.Executable(); err == nil {
		binDir := filepath.Dir(execPath)
		if len(dirs) == 0 || dirs[0] != binDir {
			dirs = append(dirs, binDir)
		}
	}
	return dirs
}

// resolveAbsPath делает путь абсолютным; при ошибке возвращает как есть.
func resolveAbsPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
