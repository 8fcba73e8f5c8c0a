package logger

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	levelNone  slog.Level = math.MaxInt
)

/*
LogConfiguration describes the logger, loaded from yaml file and overridden
by the command line flags.
*/
type LogConfiguration struct {
	Level      string `yaml:"defaultLevel"`
	Format     string `yaml:"format"`     // text, json, ecs or console
	OutputPath string `yaml:"outputPath"` // stdout, stderr, discard or file name
	TimeFormat string `yaml:"timeFormat"` // Go time layout or "none"
	ShowSource bool   `yaml:"showSource"`
}

// New creates logger according to the configuration.
func New(cfg *LogConfiguration) (*slog.Logger, error) {
	out, err := cfg.writer()
	if err != nil {
		return nil, err
	}
	h, err := cfg.Handler(out)
	if err != nil {
		return nil, fmt.Errorf("creating handler: %w", err)
	}
	return slog.New(h), nil
}

// Handler returns slog handler writing into "out" according to the configuration.
func (cfg *LogConfiguration) Handler(out io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.ShowSource,
		Level:     cfg.logLevel(),
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatTimeAttr(cfg.TimeFormat), formatDataAttrAsJSON)
		return slog.NewTextHandler(out, opts), nil
	case "json":
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatTimeAttr(cfg.TimeFormat))
		return slog.NewJSONHandler(out, opts), nil
	case "ecs":
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatTimeAttr(cfg.TimeFormat), formatAttrECS)
		return slog.NewJSONHandler(out, opts), nil
	case "console":
		// records are encoded as JSON and rendered by zerolog
		cw := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: "15:04:05.000"}
		opts.ReplaceAttr = composeAttrFmt(formatLevelAttr, formatDataAttrAsJSON, formatAttrConsole)
		return slog.NewJSONHandler(cw, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func (cfg *LogConfiguration) logLevel() slog.Level {
	if cfg.OutputPath == "discard" || cfg.OutputPath == os.DevNull {
		return levelNone
	}

	switch l := strings.ToUpper(cfg.Level); l {
	case "TRACE":
		return LevelTrace
	case "NONE":
		return levelNone
	case "WARNING":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	default:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(l)); err != nil {
			return slog.LevelInfo
		}
		return lvl
	}
}

func (cfg *LogConfiguration) writer() (io.Writer, error) {
	switch cfg.OutputPath {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "discard", os.DevNull:
		return io.Discard, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0700); err != nil {
			return nil, fmt.Errorf("creating directory for log file: %w", err)
		}
		f, err := os.OpenFile(filepath.Clean(cfg.OutputPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		return f, nil
	}
}
