package logger

import "context"

// Entry collects metric fields for a single log line, for example
//
//	logger.With(logger.Fields{logger.FieldDurationMs: ms}).WithStatus("completed").Info(ctx, "Download finished")
//
// The logger comes from the ctx passed at the end.
type Entry struct {
	fields Fields
}

// With starts an Entry with fields.
func With(fields Fields) *Entry {
	e := &Entry{fields: make(Fields, len(fields))}
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// With returns a copy of e with fields added.
func (e *Entry) With(fields Fields) *Entry {
	next := With(e.fields)
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

// WithField returns a copy of e with one field added.
func (e *Entry) WithField(key string, value interface{}) *Entry {
	return e.With(Fields{key: value})
}

// WithDuration sets duration_ms.
func (e *Entry) WithDuration(ms int64) *Entry { return e.WithField(FieldDurationMs, ms) }

// WithCount sets count.
func (e *Entry) WithCount(n int) *Entry { return e.WithField(FieldCount, n) }

// WithSize sets size in bytes.
func (e *Entry) WithSize(bytes int) *Entry { return e.WithField(FieldSize, bytes) }

// WithStatus sets status.
func (e *Entry) WithStatus(status string) *Entry { return e.WithField(FieldStatus, status) }

// WithExitCode sets the exit code of a child process.
func (e *Entry) WithExitCode(code int) *Entry { return e.WithField(FieldExitCode, code) }

func (e *Entry) target(ctx context.Context) *Logger {
	return FromContext(ctx).WithFields(e.fields)
}

// Debug logs e at debug level through the logger carried by ctx.
func (e *Entry) Debug(ctx context.Context, format string, args ...interface{}) {
	e.target(ctx).Debugf(format, args...)
}

// Info logs e at info level through the logger carried by ctx.
func (e *Entry) Info(ctx context.Context, format string, args ...interface{}) {
	e.target(ctx).Infof(format, args...)
}

// Warn logs e at warn level through the logger carried by ctx.
func (e *Entry) Warn(ctx context.Context, format string, args ...interface{}) {
	e.target(ctx).Warnf(format, args...)
}

// Error logs e at error level through the logger carried by ctx.
func (e *Entry) Error(ctx context.Context, format string, args ...interface{}) {
	e.target(ctx).Errorf(format, args...)
}
