package logger

import (
	"io"
	"log/slog"
	"os"
)

// New JSON-лог; в dev — уровень debug. Консоль станции занята оператором,
// поэтому лог можно увести в файл через w.
func New(env string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("app", "packing-station")
}
