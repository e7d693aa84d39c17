// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logctx adapts github.com/luxfi/log to the narrow logging surface
// the resolver actually needs. It follows the teacher repo's log/nolog.go:
// a no-op default plus a thin named logger, rather than threading a full
// logging framework through the pure-function core.
package logctx

import (
	luxlog "github.com/luxfi/log"
)

// Logger is the subset of structured logging the resolver calls into.
// The resolver logs component-level decisions (separator counts, auth-diff
// size, power-order and mainline emission) at Debug. It does not log
// PolicyRejection outcomes and never logs at Error; Warn is part of the
// surface but the resolver does not call it.
type Logger interface {
	Debug(msg string, kv ...any)
	Warn(msg string, kv ...any)
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Warn(string, ...any)  {}

// NoOp returns a Logger that discards everything.
func NoOp() Logger { return noop{} }

// luxLogger adapts a github.com/luxfi/log.Logger to Logger.
type luxLogger struct {
	inner luxlog.Logger
}

func (l luxLogger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l luxLogger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }

// New returns a named production logger, component-tagged the way the
// teacher's internal/ringtail finalizer tags its own logger.
func New(component string) Logger {
	return luxLogger{inner: luxlog.NewLogger(component)}
}
