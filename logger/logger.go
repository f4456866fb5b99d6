package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger carrying component fields
type Logger struct {
	logger zerolog.Logger
}

// Fields are structured fields attached to every entry of a child logger
type Fields map[string]interface{}

var (
	// Default is the process logger, set by Init
	Default *Logger

	initOnce sync.Once
)

// Init sets up the process logger. Entries go to stderr so command output on
// stdout stays clean; production runs emit JSON, everything else a console view.
func Init() {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stderr
	if os.Getenv("JOBS_ENVIRONMENT") != "production" {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	Default = &Logger{logger: zerolog.New(output).With().Timestamp().Logger()}
	Default.Debug().Str("level", level.String()).Msg("Logger initialized")
}

// getLogLevel reads LOG_LEVEL, falling back to info in production and debug elsewhere
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("JOBS_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// get returns Default, initializing it on first use
func get() *Logger {
	initOnce.Do(func() {
		if Default == nil {
			Init()
		}
	})
	return Default
}

// New wraps an existing zerolog logger, mostly for tests that capture output
func New(l zerolog.Logger) *Logger {
	return &Logger{logger: l}
}

// WithFields creates a child logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// WithField creates a child logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError creates a child logger carrying err
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Info logs a formatted message on the process logger
func Info(format string, v ...interface{}) {
	get().Info().Msgf(format, v...)
}

// Warn logs a formatted warning on the process logger
func Warn(format string, v ...interface{}) {
	get().Warn().Msgf(format, v...)
}

// LogError logs err for a component with a formatted message
func LogError(component string, err error, format string, v ...interface{}) {
	get().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

// ForSource creates a logger for one job source adapter
func ForSource(source string) *Logger {
	return get().WithField("source", source)
}

func ForWorker() *Logger    { return forComponent("worker") }
func ForNotifier() *Logger  { return forComponent("notifier") }
func ForStore() *Logger     { return forComponent("store") }
func ForPublisher() *Logger { return forComponent("publisher") }
func ForCache() *Logger     { return forComponent("cache") }
func ForScheduler() *Logger { return forComponent("scheduler") }

func forComponent(name string) *Logger {
	return get().WithField("component", name)
}
