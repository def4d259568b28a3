// Package logger wraps logrus with named logger instances (app, audit, error),
// file rotation through lumberjack and an async hook so slow disk writes never
// block request handling.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logging configuration, resolved from environment variables.
type Config struct {
	Level      string // trace, debug, info, warn, error, fatal
	Format     string // json, text
	Output     string // file, stdout, both
	LogPath    string
	MaxSize    int // MB per file before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig builds the config from GO_ENV and LOG_* variables.
// Development defaults to text/debug, anything else to json/info.
func DefaultConfig() *Config {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Level:      "info",
		Format:     "json",
		Output:     "both",
		LogPath:    "./logs",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
	}
	if env == "development" {
		cfg.Level = "debug"
		cfg.Format = "text"
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
	return cfg
}

var (
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.Mutex
	config    *Config
)

// Init initializes the logging system. Passing nil uses DefaultConfig.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	config = cfg

	if err := os.MkdirAll(cfg.LogPath, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

// GetLogger returns (creating if needed) the named logger instance.
func GetLogger(name string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if config == nil {
		if err := Init(nil); err != nil {
			panic(fmt.Sprintf("failed to initialize logger: %v", err))
		}
	}
	if l, ok := loggers[name]; ok {
		return l
	}
	l := createLogger(name)
	loggers[name] = l
	return l
}

// GetAppLogger returns the main application logger.
func GetAppLogger() *logrus.Logger { return GetLogger("app") }

// GetAuditLogger returns the audit trail logger (workflow transitions).
func GetAuditLogger() *logrus.Logger { return GetLogger("audit") }

// GetErrorLogger returns the error logger.
func GetErrorLogger() *logrus.Logger { return GetLogger("error") }

func createLogger(name string) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if config.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var writers []io.Writer
	if config.Output == "file" || config.Output == "both" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(config.LogPath, name+".log"),
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}
	if config.Output == "stdout" || config.Output == "both" {
		writers = append(writers, os.Stdout)
	}

	// All writers go through the async hook; the logger's own output is
	// discarded so entries are not written twice.
	if len(writers) > 0 {
		l.AddHook(NewAsyncHookWithWriters(writers, 1000))
		l.SetOutput(io.Discard)
	}

	return l
}
