// Package logging builds the zap logger shared by the CLI and the store.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure New.
type Options struct {
	Level  string    // debug|info|warn|error, default warn
	JSON   bool      // JSON lines instead of console output
	Output io.Writer // required
}

// New returns a logger writing to opts.Output.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(opts.Level, "warn")))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if opts.Output == nil {
		return nil, fmt.Errorf("logging: missing output")
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.TimeKey = ""
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(opts.Output), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
