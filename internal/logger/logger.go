package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Logger is a logrus entry carrying the service field plus whatever request
// or job fields were attached along the way.
type Logger struct {
	*logrus.Entry
}

// rotating is the open log file of the process-wide logger, closed by Sync.
var (
	rotating   io.Closer
	rotatingMu sync.Mutex
)

// New builds a Logger from opts; nil means DefaultOptions.
func New(opts *Options) *Logger {
	if opts == nil {
		opts = DefaultOptions()
	}

	base := logrus.New()
	base.SetOutput(destination(opts))
	base.SetReportCaller(true)
	base.SetFormatter(formatter(opts.Format))

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	return &Logger{Entry: base.WithField("service", opts.ServiceName)}
}

// NewDefault builds the process logger from the environment. Call Sync before exit.
func NewDefault() *Logger {
	return New(OptionsFromEnv())
}

func destination(opts *Options) io.Writer {
	if opts.Output != nil {
		return opts.Output
	}

	local := opts.Environment == "" || opts.Environment == "local"
	if local || opts.File == "" {
		return os.Stdout
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	rotatingMu.Lock()
	rotating = file
	rotatingMu.Unlock()

	if opts.FileOnly {
		return file
	}
	return io.MultiWriter(os.Stdout, file)
}

func formatter(format string) logrus.Formatter {
	if strings.EqualFold(format, "text") {
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  timestampFormat,
			CallerPrettyfier: shortCaller,
		}
	}
	return &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: shortCaller,
	}
}

// shortCaller reports "pkg.Func" and "file.go:line".
func shortCaller(frame *runtime.Frame) (string, string) {
	fn := frame.Function
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	return fn, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}

// Sync closes the rotating log file, if any.
func Sync() error {
	rotatingMu.Lock()
	defer rotatingMu.Unlock()
	if rotating == nil {
		return nil
	}
	err := rotating.Close()
	rotating = nil
	return err
}

// WithFields returns a child logger with fields added.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a child logger with one field added.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithError returns a child logger carrying err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// Debug logs through the default logger.
func Debug(format string, args ...interface{}) { GetDefault().Debugf(format, args...) }

// Info logs through the default logger.
func Info(format string, args ...interface{}) { GetDefault().Infof(format, args...) }

// Warn logs through the default logger.
func Warn(format string, args ...interface{}) { GetDefault().Warnf(format, args...) }

// Error logs through the default logger.
func Error(format string, args ...interface{}) { GetDefault().Errorf(format, args...) }

// CtxDebug logs through the logger carried by ctx.
func CtxDebug(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Debugf(format, args...)
}

// CtxInfo logs through the logger carried by ctx.
func CtxInfo(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Infof(format, args...)
}

// CtxWarn logs through the logger carried by ctx.
func CtxWarn(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Warnf(format, args...)
}

// CtxError logs through the logger carried by ctx.
func CtxError(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).Errorf(format, args...)
}
