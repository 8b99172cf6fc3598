// Package utils предоставляет простой файловый логгер и мелкие helpers для агента.
//
// Логгер пишет строки вида:
//
//	[2025-12-27 15:30:00] INFO: message key1=value1 key2=value2
//
// Пока InitLogger/SetOutput не вызваны, все вызовы - no-op: библиотечный код
// ничего не печатает в stdout. Thread-safe через sync.Mutex.
package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level - уровень логирования.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String возвращает имя уровня в формате строки лога.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации ("debug", "info", "warn", "error").
// Неизвестные значения дают LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	logMutex sync.Mutex
	logOut   io.Writer
	logFile  *os.File
	minLevel = LevelDebug
)

// InitLogger создает/открывает .log файл.
//
// Пустой path даёт файл miniagent-YYYY-MM-DD-HH-MM.log в текущей директории.
// Повторный вызов при открытом файле ничего не делает.
func InitLogger(path string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		return nil
	}

	if path == "" {
		path = fmt.Sprintf("miniagent-%s.log", time.Now().Format("2006-01-02-15-04"))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = f
	logOut = f

	// Пишем напрямую: мьютекс уже захвачен
	writeLine(fmt.Sprintf("[%s] INFO: Logger initialized file=%s\n", time.Now().Format("2006-01-02 15:04:05"), path))
	return nil
}

// SetOutput направляет лог в произвольный writer (stderr в CLI, буфер в тестах).
// nil выключает логирование.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logOut = w
}

// SetLevel задаёт минимальный уровень, ниже которого сообщения отбрасываются.
func SetLevel(level Level) {
	logMutex.Lock()
	defer logMutex.Unlock()
	minLevel = level
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	log(LevelInfo, msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	log(LevelError, msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	log(LevelDebug, msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	log(LevelWarn, msg, keyvals...)
}

// log - внутренняя функция записи в лог.
func log(level Level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logOut == nil || level < minLevel {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05"), level, msg)

	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&b, " %v=<missing>", keyvals[i])
		}
	}
	b.WriteByte('\n')

	writeLine(b.String())
}

// writeLine пишет готовую строку. Вызывать под logMutex.
func writeLine(line string) {
	if _, err := io.WriteString(logOut, line); err != nil {
		// Fallback: если файл недоступен, пишем в stderr
		fmt.Fprint(os.Stderr, line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: write failed: %v]\n", err)
		return
	}

	if logFile != nil && logOut == io.Writer(logFile) {
		if err := logFile.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
		}
	}
}

// Close закрывает лог-файл.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		if logOut == io.Writer(logFile) {
			logOut = nil
		}
		logFile = nil
	}
}

// MaskSecret скрывает секрет для логов: "sk-abcdef123" → "sk-abc...".
func MaskSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:6] + "..."
}
