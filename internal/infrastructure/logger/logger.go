package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// log is nil until Init runs; every helper is a no-op before that.
var log *zap.Logger

// Config describes log level, console echo and file rotation.
type Config struct {
	// debug, info, warn, error, dpanic, panic, fatal
	Level string `mapstructure:"level"`
	// also write human readable lines to stdout
	Console bool `mapstructure:"console"`
	// JSON log file
	FilePath string `mapstructure:"file_path"`
	// rotation size in MB
	MaxSize int `mapstructure:"max_size"`
	// rotated files kept
	MaxBackups int `mapstructure:"max_backups"`
	// days a rotated file is kept
	MaxAge int `mapstructure:"max_age"`
	// gzip rotated files
	Compress bool `mapstructure:"compress"`
}

func (c *Config) applyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.FilePath == "" {
		c.FilePath = "logs/news-enricher.log"
	}
	if c.MaxSize == 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAge == 0 {
		c.MaxAge = 28
	}
}

// Init builds the global logger: a JSON core on a rotating file, teed with an
// optional console core.
func Init(config Config) error {
	config.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	})
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
	}

	if config.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	Info("logger initialized", "level", config.Level, "file", config.FilePath)
	return nil
}

// Sync flushes buffered entries.
func Sync() error {
	if log != nil {
		return log.Sync()
	}
	return nil
}

func Debug(msg string, keysAndValues ...interface{}) {
	if log != nil {
		log.Sugar().Debugw(msg, keysAndValues...)
	}
}

func Info(msg string, keysAndValues ...interface{}) {
	if log != nil {
		log.Sugar().Infow(msg, keysAndValues...)
	}
}

func Warn(msg string, keysAndValues ...interface{}) {
	if log != nil {
		log.Sugar().Warnw(msg, keysAndValues...)
	}
}

func Error(msg string, keysAndValues ...interface{}) {
	if log != nil {
		log.Sugar().Errorw(msg, keysAndValues...)
	}
}

// Fatal logs and exits the process.
func Fatal(msg string, keysAndValues ...interface{}) {
	if log != nil {
		log.Sugar().Fatalw(msg, keysAndValues...)
	}
	os.Exit(1)
}

// WithContext returns a logger that tags every entry with a component name.
func WithContext(ctx string) *ContextLogger {
	return &ContextLogger{context: ctx}
}

// ContextLogger prefixes entries with a "context" field.
type ContextLogger struct {
	context string
}

func (c *ContextLogger) kv(keysAndValues []interface{}) []interface{} {
	return append([]interface{}{"context", c.context}, keysAndValues...)
}

func (c *ContextLogger) Debug(msg string, keysAndValues ...interface{}) {
	Debug(msg, c.kv(keysAndValues)...)
}

func (c *ContextLogger) Info(msg string, keysAndValues ...interface{}) {
	Info(msg, c.kv(keysAndValues)...)
}

func (c *ContextLogger) Warn(msg string, keysAndValues ...interface{}) {
	Warn(msg, c.kv(keysAndValues)...)
}

func (c *ContextLogger) Error(msg string, keysAndValues ...interface{}) {
	Error(msg, c.kv(keysAndValues)...)
}

// TimeTrack logs how long the caller took; use as `defer logger.TimeTrack("name")()`.
func TimeTrack(name string) func() {
	start := time.Now()
	return func() {
		Debug("timing", "function", name, "duration", time.Since(start))
	}
}
