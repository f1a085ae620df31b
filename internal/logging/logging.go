package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global sugared logger based on LOG_LEVEL and redirects
// the standard library logger to zap. It's safe to call multiple times.
func Init() *zap.SugaredLogger {
	once.Do(func() {
		SetLevel(os.Getenv("LOG_LEVEL"))
	})
	return sugar
}

// SetLevel rebuilds the global logger for the given level. The package init
// runs before main can load a .env file, so callers re-apply the configured
// level once configuration is available.
func SetLevel(level string) *zap.SugaredLogger {
	var logger *zap.Logger
	if strings.ToLower(level) == "debug" {
		l, _ := zap.NewDevelopment()
		logger = l
	} else {
		l, _ := zap.NewProduction()
		logger = l
	}
	// Redirect standard library logs into zap so all logs are unified.
	_ = zap.RedirectStdLog(logger)
	sugar = logger.Sugar()
	return sugar
}

// Sugar returns the initialized sugared logger. Call Init first.
func Sugar() *zap.SugaredLogger { return sugar }

// Sync flushes any buffered log entries. Intended for defer in main.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func Debugw(msg string, kv ...interface{}) { Init().Debugw(msg, kv...) }
func Infow(msg string, kv ...interface{})  { Init().Infow(msg, kv...) }
func Warnw(msg string, kv ...interface{})  { Init().Warnw(msg, kv...) }
func Errorw(msg string, kv ...interface{}) { Init().Errorw(msg, kv...) }

func init() {
	Init()
}
