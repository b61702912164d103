package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/egannguyen/printshop-backend/internal/config"
)

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func setupLogger(w io.Writer, cfg config.LogConfig) error {
	logger, err := newLogger(w, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
