package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is canceled by the first SIGINT or SIGTERM, a second one exits the
// process immediately.
func SignalContext() context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
		slog.Info("shutting down, interrupt again to exit immediately")

		force := make(chan os.Signal, 1)
		signal.Notify(force, syscall.SIGINT, syscall.SIGTERM)
		<-force
		os.Exit(130)
	}()
	return ctx
}

// Fatal logs message with err and any extra attributes, then exits with status 1.
func Fatal(message string, err error, attrs ...any) {
	slog.Error(message, append([]any{"err", err}, attrs...)...)
	os.Exit(1)
}
