// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package log is a structured, slog-backed logger, ported from
// go-ethereum's log package for use across this module's packages.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

const (
	LevelCrit  = slog.Level(12)
	LevelError = slog.LevelError
	LevelWarn  = slog.LevelWarn
	LevelInfo  = slog.LevelInfo
	LevelDebug = slog.LevelDebug
	LevelTrace = slog.Level(-8)
)

// Logger is the interface used throughout this module for structured,
// leveled logging with key/value pairs.
type Logger interface {
	With(ctx ...interface{}) Logger
	New(ctx ...interface{}) Logger

	Log(level slog.Level, msg string, ctx ...interface{})

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a Logger backed by handler.
func NewLogger(handler slog.Handler) Logger {
	return &logger{inner: slog.New(handler)}
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

func (l *logger) Write(level slog.Level, msg string, attrs ...interface{}) {
	l.inner.Log(context.Background(), level, msg, attrs...)
}

func (l *logger) Log(level slog.Level, msg string, ctx ...interface{}) { l.Write(level, msg, ctx...) }
func (l *logger) Trace(msg string, ctx ...interface{})                 { l.Write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...interface{})                 { l.Write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...interface{})                  { l.Write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...interface{})                  { l.Write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...interface{})                 { l.Write(LevelError, msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

func (l *logger) With(ctx ...interface{}) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) New(ctx ...interface{}) Logger { return l.With(ctx...) }

var (
	defaultMu     sync.Mutex
	defaultLogger atomic.Pointer[Logger]
)

func init() {
	var l Logger = NewLogger(NewTerminalHandler(os.Stderr, true))
	defaultLogger.Store(&l)
}

// SetDefault sets the package-level default logger used by the
// top-level Trace/Debug/Info/Warn/Error/Crit functions.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger.Store(&l)
}

// Root returns the current default logger.
func Root() Logger { return *defaultLogger.Load() }

// WithContext returns a child of the default logger carrying the given
// key/value pairs on every subsequent call, per the teacher's
// `logger = log.WithContext("pkg", "...")` convention.
func WithContext(ctx ...interface{}) Logger { return Root().With(ctx...) }

func New(ctx ...interface{}) Logger { return Root().New(ctx...) }

func Trace(msg string, ctx ...interface{}) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { Root().Crit(msg, ctx...) }
