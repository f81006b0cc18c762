// Copyright 2026 Richard Sanger, Wand Network Research Group
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a key-value structured logger backed by zap.
package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// Level is the log level type used by Enabled.
type Level = zapcore.Level

// Available log levels.
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(lvl)
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(ctx[i].(string), ctx[i+1]))
	}
	return fields
}

// Config configures the logging backend.
type Config struct {
	// Level of logging (debug|info|error). Defaults to info.
	Level string `toml:"level,omitempty"`
	// Format of the log entries (human|json). Defaults to human.
	Format string `toml:"format,omitempty"`
}

// InitDefaults populates unset fields to their default values.
func (c *Config) InitDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "human"
	}
}

var root = &logger{logger: newConsole(zapcore.InfoLevel)}

// Setup configures the root logger. It must be called before the root logger
// is used.
func Setup(cfg Config) error {
	cfg.InitDefaults()
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return serrors.Wrap("unsupported log level", err, "level", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "human":
		root = &logger{logger: newConsole(lvl)}
	case "json":
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)
		root = &logger{logger: zap.New(core)}
	default:
		return serrors.New("unsupported log format", "format", cfg.Format)
	}
	return nil
}

func newConsole(lvl zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core)
}

// Root returns the root logger. It is never nil.
func Root() Logger {
	return root
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &logger{logger: zap.NewNop()}
}

// Flush writes pending log entries out.
func Flush() {
	_ = root.logger.Sync()
}

// New creates a logger with the given context, based on the root logger.
func New(ctx ...any) Logger {
	return root.New(ctx...)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) {
	root.Debug(msg, ctx...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) {
	root.Info(msg, ctx...)
}

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) {
	root.Error(msg, ctx...)
}
