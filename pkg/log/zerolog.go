package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	rootMu sync.RWMutex
	root   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.WarnLevel)
)

// SetLevel sets the minimum level emitted by loggers obtained from this package.
func SetLevel(level Level) {
	rootMu.Lock()
	defer rootMu.Unlock()
	root = root.Level(toZerologLevel(level))
}

// GetLogger returns the default logger instance.
func GetLogger() Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return &zerologLogger{l: root}
}

// GetLoggerWithName returns a logger tagged with a component name,
// e.g. "boosting.trainer" or "pipeline".
func GetLoggerWithName(name string) Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return &zerologLogger{l: root.With().Str(ComponentKey, name).Logger()}
}

// zerologLogger adapts a zerolog.Logger to the package Logger interface.
type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...any) { z.emit(z.l.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...any)  { z.emit(z.l.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { z.emit(z.l.Warn(), msg, fields) }
func (z *zerologLogger) Error(msg string, fields ...any) { z.emit(z.l.Error(), msg, fields) }

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{l: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.l.GetLevel() <= toZerologLevel(level)
}

// emit writes one event, pairing up the variadic fields. A trailing odd
// field is recorded under the key "field" rather than dropped.
func (z *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	i := 0
	for ; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
			if trace := stackTrace(v); trace != "" {
				ev = ev.Str(StacktraceKey, trace)
			}
		default:
			ev = ev.Interface(key, v)
		}
	}
	if i < len(fields) {
		if err, ok := fields[i].(error); ok {
			ev = ev.AnErr(ErrorKey, err)
			if trace := stackTrace(err); trace != "" {
				ev = ev.Str(StacktraceKey, trace)
			}
		} else {
			ev = ev.Interface("field", fields[i])
		}
	}
	ev.Msg(msg)
}

// stackTrace extracts the safe details recorded by cockroachdb/errors, which
// include the stack captured by WithStack.
func stackTrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) > 0 {
		return details[0]
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
