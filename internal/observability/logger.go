package observability

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/okh2o/stream-dashboard/internal/config"
)

// NewLogger builds the process logger: JSON for LOG_FORMAT=json, colourised
// text via tint otherwise.
func NewLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.SlogLevel(),
			TimeFormat: time.Kitchen,
		})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})
	}
	return slog.New(h).With("app", "stream-dashboard")
}
