package logger

import (
	"io"
	"log/slog"
	"os"
)

// New はJSONでstdoutに出すロガーを返す。service/hostnameは全行に付く。
func New(service string, development bool) *slog.Logger {
	return newWithWriter(os.Stdout, service, development)
}

func newWithWriter(w io.Writer, service string, development bool) *slog.Logger {
	hostname, _ := os.Hostname()

	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(
		slog.String("service", service),
		slog.String("hostname", hostname),
	)
}

// Nop は何も出さない（テスト用）
func Nop() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
