package telemetry

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// InitSlog installs tint on stderr as the default logger, colors are disabled when
// stderr is not a terminal.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

// SlogAPI writes reports to the default slog logger, params are grouped under
// "params" and keyed by position.
type SlogAPI struct{}

func reportAttrs(id string, params []any) []any {
	indexed := make([]any, len(params))
	for i, p := range params {
		indexed[i] = slog.Any(strconv.Itoa(i), p)
	}
	attrs := []any{}
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	if len(params) > 0 {
		attrs = append(attrs, slog.Group("params", indexed...))
	}
	return attrs
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken", reportAttrs(id, params)...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", reportAttrs(id, params)...)
}

func (SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, reportAttrs("", params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
