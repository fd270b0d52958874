// Package logging wraps go-logger behind the small interface the gateway uses.
package logging

import (
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"convert-gateway/vars"
)

// Logger is the structured logger handed to every component.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Provider hands out named child loggers from a single go-logger root.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider builds the root logger from config.
func NewProvider(cfg vars.LogConfig) (*Provider, error) {
	options := []glog.Option{}

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	return &Provider{root: glog.NewLogger(options...)}, nil
}

// Get returns the logger for a component. A nil provider yields NoOp.
func (p *Provider) Get(name string) Logger {
	if p == nil {
		return NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return &adapter{inner: p.root}
	}
	return &adapter{inner: p.root.GetLogger(name)}
}

type adapter struct {
	inner glog.Logger
	args  []any
}

func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, l.merge(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, l.merge(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.merge(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, l.merge(args)...) }

func (l *adapter) With(args ...any) Logger {
	if len(args) == 0 {
		return l
	}
	return &adapter{inner: l.inner, args: l.merge(args)}
}

func (l *adapter) merge(args []any) []any {
	if len(l.args) == 0 {
		return args
	}
	out := make([]any, 0, len(l.args)+len(args))
	out = append(out, l.args...)
	return append(out, args...)
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return ""
	}
}

type noop struct{}

// NoOp discards everything.
func NoOp() Logger { return noop{} }

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
func (n noop) With(...any) Logger { return n }
