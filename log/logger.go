// Copyright 2015 The go-ethereum Authors
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

// Package log provides leveled, key-value structured logging, trimmed down
// from go-ethereum's log15-derived logger to the parts the pool needs.
package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stack/stack"
)

type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlTrace:
		return "TRACE"
	case LvlDebug:
		return "DEBUG"
	case LvlInfo:
		return "INFO"
	case LvlWarn:
		return "WARN"
	case LvlError:
		return "ERROR"
	case LvlCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled, key-value annotated messages. New returns a child
// logger with additional context permanently bound to every message it emits.
type Logger interface {
	New(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any) // Crit additionally terminates the process
}

var globalLevel atomic.Int32

// SetLevel bounds which messages reach the writer; anything more verbose
// than lvl is dropped cheaply before formatting.
func SetLevel(lvl Lvl) { globalLevel.Store(int32(lvl)) }

func init() { SetLevel(LvlInfo) }

type logger struct {
	ctx []any
	mu  *sync.Mutex
}

// Root returns the top-level Logger that every package-level helper
// (log.Info, log.Warn, ...) below writes through.
func Root() Logger { return root }

var root = &logger{mu: new(sync.Mutex)}

func (l *logger) New(ctx ...any) Logger {
	return &logger{ctx: newContext(l.ctx, ctx), mu: l.mu}
}

func newContext(prefix, suffix []any) []any {
	normalized := normalize(suffix)
	out := make([]any, 0, len(prefix)+len(normalized))
	out = append(out, prefix...)
	out = append(out, normalized...)
	return out
}

func normalize(ctx []any) []any {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, nil, "LOG_ERROR", "normalized odd number of arguments")
	}
	return ctx
}

func (l *logger) write(lvl Lvl, msg string, ctx []any) {
	if Lvl(globalLevel.Load()) < lvl {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	all := newContext(l.ctx, ctx)
	fmt.Fprintf(os.Stderr, "%s [%s] %s", time.Now().Format("01-02|15:04:05.000"), lvl, msg)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(os.Stderr, " %v=%v", all[i], all[i+1])
	}
	fmt.Fprintln(os.Stderr)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LvlError, msg, ctx) }
// Crit attaches the immediate caller's file:line before writing, the same
// way log15 annotates its fatal path, since a Crit message terminates the
// process and there is no second chance to inspect where it came from.
func (l *logger) Crit(msg string, ctx ...any) {
	caller := stack.Caller(1)
	l.write(LvlCrit, msg, append(append([]any{}, ctx...), "caller", fmt.Sprintf("%+v", caller)))
	os.Exit(1)
}

// New returns a child of the root logger with ctx permanently bound.
func New(ctx ...any) Logger { return root.New(ctx...) }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }
