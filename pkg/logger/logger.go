// Package logger holds the process-wide zap logger. Services derive
// module-scoped children through WithModule instead of threading a logger
// through every constructor.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu sync.RWMutex

	// Starts as a nop so code paths that run before Init can log safely.
	global = zap.NewNop()
)

// Init builds a production logger at the given level and installs it as the
// process logger. An empty or unrecognised level falls back to info.
func Init(level string) error {
	parsed := zapcore.InfoLevel
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		if err := parsed.UnmarshalText([]byte(trimmed)); err != nil {
			parsed = zapcore.InfoLevel
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	global = built
	mu.Unlock()
	return nil
}

// Logger returns the current process logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered entries. Called once during shutdown.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger tagged with the owning module.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
