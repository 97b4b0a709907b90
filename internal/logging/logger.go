// Package logging configures the zerolog logger shared by every stage.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage names used in the "stage" field
const (
	StageParse     = "parse"
	StageClassify  = "classify"
	StageExplain   = "explain"
	StageTranslate = "translate"
	StageSpeech    = "speech"
	StageDeliver   = "deliver"
)

// Options configures the logger
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // text or json
	Service string
	Out     io.Writer
}

// New builds a logger. Text format writes a console writer, anything else
// writes JSON lines.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if strings.EqualFold(opts.Format, "text") {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	} else {
		logger = zerolog.New(out)
	}

	ctx := logger.Level(level).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// Init builds a logger and installs it as the global logger used by
// packages that log through zerolog/log
func Init(opts Options) zerolog.Logger {
	logger := New(opts)
	log.Logger = logger
	return logger
}

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger attached to ctx, or the global logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
