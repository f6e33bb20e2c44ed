package asx

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// logifaceLogger adapts a github.com/joeycumines/logiface logger (writing
// compact JSON via github.com/joeycumines/stumpy) to this package's Logger
// interface, so the kernel's default log hook is a real structured-logging
// backend rather than a hand-rolled sink.
type logifaceLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewLogifaceLogger wraps logger as a Logger, for embedders who already
// maintain their own logiface.Logger and want the kernel to write into it.
func NewLogifaceLogger(l *logiface.Logger[*stumpy.Event]) Logger {
	return &logifaceLogger{l: l}
}

func (a *logifaceLogger) Log(level LogLevel, msg string, fields ...Field) {
	if a == nil || a.l == nil {
		return
	}
	b := a.l.Build(toLogifaceLevel(level))
	if b == nil {
		return
	}
	for _, f := range fields {
		addLogifaceField(b, f)
	}
	b.Log(msg)
}

func toLogifaceLevel(level LogLevel) logiface.Level {
	switch level {
	case LogDebug:
		return logiface.LevelDebug
	case LogWarn:
		return logiface.LevelWarning
	case LogError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func addLogifaceField(b *logiface.Builder[*stumpy.Event], f Field) {
	switch v := f.Value.(type) {
	case string:
		b.Str(f.Key, v)
	case int:
		b.Int(f.Key, v)
	case int64:
		b.Int64(f.Key, v)
	case uint64:
		b.Uint64(f.Key, v)
	case bool:
		b.Bool(f.Key, v)
	case error:
		b.Err(v)
	default:
		b.Interface(f.Key, v)
	}
}

// defaultLogiface builds the kernel's default Logger: a logiface.Logger
// backed by stumpy's zero-allocation JSON writer, emitting to os.Stderr.
// This is wired in place of a bespoke sink per the ambient-stack rule that
// the teacher's own structured-logging convention carries through to the
// kernel (see SPEC_FULL.md, AMBIENT STACK / Logging).
func defaultLogiface() Logger {
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
	)
	return NewLogifaceLogger(l)
}

// NoopLogger discards everything; useful for tests that want to exercise
// hook-validation paths without emitting output.
type NoopLogger struct{}

func (NoopLogger) Log(LogLevel, string, ...Field) {}
