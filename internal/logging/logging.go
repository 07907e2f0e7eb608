package logging

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger writing to stdout. Format "json" selects the
// JSON handler, anything else gets the text handler.
func New(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
