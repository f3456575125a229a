// Package logging は設定から *slog.Logger を組み立てます。
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/ogurasousui/hrnet/internal/platform/config"
)

// New は log 設定に従い標準エラー出力へ書き込む Logger を生成します。
func New(cfg config.LogConfig) *slog.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter は出力先を指定して Logger を生成します。
func NewWithWriter(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "hrnet")
}

func level(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
