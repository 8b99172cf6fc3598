package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown отменяет контекст по SIGINT/SIGTERM.
//
// Агент проверяет ctx на границах вызова модели и инструментов, поэтому
// Ctrl+C прерывает запрос между шагами и оставляет историю целостной.
//
// Возвращает функцию очистки для defer: снимает обработчик сигналов и
// закрывает лог.
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer utils.SetupGracefulShutdown(cancel)()
func SetupGracefulShutdown(cancel context.CancelFunc) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal, cancelling current query", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
		Close()
	}
}

// SetupGracefulShutdownWithContext создаёт контекст и настраивает graceful shutdown.
//
//	ctx, shutdown := SetupGracefulShutdownWithContext()
//	defer shutdown()
func SetupGracefulShutdownWithContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	shutdown := SetupGracefulShutdown(cancel)
	return ctx, func() {
		shutdown()
		cancel()
	}
}
