package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/lmittmann/tint"
)

// NewLogger creates the service logger and sets it as the slog default.
// format "tint" gives colorized console output on stderr; "text" and "json"
// (the default) are handled by the shared logger.
func NewLogger(level, format string) *slog.Logger {
	if !strings.EqualFold(format, "tint") {
		return sharedobs.NewLogger(level, format)
	}
	logger := newTintLogger(os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}

func newTintLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.Kitchen,
	}))
}

// parseLevel accepts debug, info, warn and error; anything else is info.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
