package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sqanatoliy/jobs-scraper/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(scraperName string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger writes recovered run failures to an error journal file and mirrors
// everything to the structured logger
type Logger struct {
	mu        sync.Mutex
	errorFile string
}

// NewLogger creates a new logger instance. An empty errorFile disables the journal.
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs an error to a file with scraper name and timestamp
func (l *Logger) LogError(scraperName string, err error) {
	logger.ForSource(scraperName).Error().Err(err).Msg("Scraper error")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.errorFile); dir != "" {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			logger.Warn("failed to create log directory %s: %v", dir, mkErr)
			return
		}
	}

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if fileErr != nil {
		logger.Warn("failed to open error log %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, scraperName, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
